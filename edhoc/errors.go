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

// Package edhoc implements the core of RFC 9528 Ephemeral Diffie-Hellman
// Over COSE: the Initiator/Responder state machines, transcript hashes,
// key schedule, and Signature-or-MAC authentication. It builds its
// CBOR sequences with fxamacker/cbor/v2 and its COSE structures and AEAD
// transforms through the cose package; ECDH and signature primitives are
// supplied by the caller (see cryptoprim for a reference adapter).
package edhoc

import "errors"

// ErrCodeSuccess etc. are the EDHOC error codes (RFC 9528 §6.2, §9).
const (
	ErrCodeSuccess            = 0
	ErrCodeUnspecified        = 1
	ErrCodeWrongSelectedSuite = 2
	ErrCodeUnknownCriticalEAD = 3
)

var (
	// ErrWrongState is returned when an operation is invoked against a
	// session not in the precondition state it requires.
	ErrWrongState = errors.New("edhoc: operation invalid in current state")
	// ErrAuthFailed is the single opaque verification failure returned
	// at the public boundary (MAC, signature, or transcript mismatch)
	// to avoid giving an attacker an oracle into which check failed.
	ErrAuthFailed = errors.New("edhoc: authentication failed")
	// ErrSuiteNegotiationFailed is returned when no suite in SUITES_I is
	// acceptable to the Responder.
	ErrSuiteNegotiationFailed = errors.New("edhoc: suite negotiation failed")
	// ErrUnknownCriticalEAD is returned when a critical EAD item (a
	// negative ead_label) is not recognized.
	ErrUnknownCriticalEAD = errors.New("edhoc: unknown critical EAD item")
	// ErrUnexpectedMessage is returned when a message is received out
	// of sequence for the session's current state.
	ErrUnexpectedMessage = errors.New("edhoc: unexpected message for current state")
)

// Error is an EDHOC error message (RFC 9528 §6.2): ERR_CODE, ERR_INFO.
type Error struct {
	Code int
	Info interface{}
}

func (e *Error) Error() string {
	return "edhoc: peer error"
}
