// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package oscore implements the core of RFC 8613 Object Security for
// Constrained RESTful Environments: the security context model, the
// option-class split, AAD/nonce construction, and the coap2oscore /
// oscore2coap transforms. It consumes coap.Message for the wire model and
// cose.AEAD for the cryptographic transform; it never drives a socket
// directly, and it parses CBOR only for persisted context records.
package oscore

import "errors"

var (
	// ErrTooManyOptions is returned when an option split exceeds MaxOptionCount.
	ErrTooManyOptions = errors.New("oscore: too many options")
	// ErrContextNotFound is returned when no recipient context matches
	// an inbound OSCORE option's (kid, kid context).
	ErrContextNotFound = errors.New("oscore: recipient context not found")
	// ErrReplayed is returned when an inbound partial IV has already
	// been seen or falls below the replay window.
	ErrReplayed = errors.New("oscore: replayed partial IV")
	// ErrDecryptionFailed is returned when AEAD verification fails;
	// the replay window MUST NOT advance when this is returned.
	ErrDecryptionFailed = errors.New("oscore: decryption failed")
	// ErrSSNExhausted is returned once a context's Sender Sequence
	// Number reaches MaxSSN; the context is permanently unusable after.
	ErrSSNExhausted = errors.New("oscore: sender sequence number exhausted")
	// ErrEchoMismatch is returned when a post-reboot response does not
	// carry the expected Echo challenge value.
	ErrEchoMismatch = errors.New("oscore: echo challenge mismatch")
	// ErrNoOscoreOption is returned by DecodeRequest when the inbound message
	// carries no OSCORE option; callers should treat this as a signal
	// to fall back to a plain CoAP handler, not as a hard failure.
	ErrNoOscoreOption = errors.New("oscore: no OSCORE option present")
	// ErrMalformedOption is returned when an OSCORE option value's
	// internal layout (§4.2.5) is inconsistent with its declared length.
	ErrMalformedOption = errors.New("oscore: malformed OSCORE option value")
	// ErrDuplicateContext flags two locally configured contexts sharing
	// the (Sender ID, ID Context, Master Secret) triple.
	ErrDuplicateContext = errors.New("oscore: duplicate security context")
	// ErrChecksumMismatch is returned by LoadContext when a persisted
	// record's trailing CRC32 does not match its body.
	ErrChecksumMismatch = errors.New("oscore: persisted context checksum mismatch")
)
