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

package edhoc

import "github.com/GiterLab/go-edhoc-oscore/cose"

// Method enumerates the four RFC 9528 authentication method combinations
// (Initiator authentication, Responder authentication), each either
// Signature Key or Static DH Key.
type Method int

const (
	MethodSigSig Method = 0
	MethodSigDH  Method = 1
	MethodDHSig  Method = 2
	MethodDHDH   Method = 3
)

// InitiatorUsesSignature reports whether the Initiator authenticates
// with a signature (true) or static DH (false) under m.
func (m Method) InitiatorUsesSignature() bool { return m == MethodSigSig || m == MethodSigDH }

// ResponderUsesSignature reports whether the Responder authenticates
// with a signature (true) or static DH (false) under m.
func (m Method) ResponderUsesSignature() bool { return m == MethodSigSig || m == MethodDHSig }

// Suite is a negotiated EDHOC cipher suite: AEAD/hash for the key
// schedule and message encryption, a MAC length for static-DH
// authentication, and the ECDH/signature primitives plugged in by the
// caller (this package depends only on their cose-shaped interfaces).
type Suite struct {
	ID int

	// NewAEAD builds a cose.AEAD bound to a freshly derived per-message
	// key (K_3, K_4); EDHOC never reuses a single AEAD key the way
	// OSCORE's context does, so the suite supplies a constructor rather
	// than a preset instance (e.g. cryptoprim.NewAEAD with a fixed alg).
	NewAEAD   func(key []byte) (cose.AEAD, error)
	KeyLength int
	Hash      cose.HashFunc
	HashLen   int
	MACLength int

	// ECDH computes the shared secret from an own private key and a
	// peer public key (e.g. cryptoprim.X25519).
	ECDH func(ownPrivate, peerPublic []byte) ([]byte, error)

	// GenerateEphemeral produces a fresh ephemeral key pair for this
	// suite's curve (e.g. cryptoprim.X25519KeyPair).
	GenerateEphemeral func() (public, private []byte, err error)
}

// SupportedSuites reports whether any of candidates is acceptable,
// returning the first acceptable suite's ID, matching RFC 9528 §3.6's
// suite-negotiation rule: the Responder picks its most preferred suite
// present in SUITES_I.
func SupportedSuites(supported []int, candidates []int) (int, bool) {
	for _, s := range supported {
		for _, c := range candidates {
			if s == c {
				return s, true
			}
		}
	}
	return 0, false
}

// EDHOC-KDF labels (RFC 9528 §4.1.3, §4.2).
const (
	labelKeystream2 = 0
	labelMAC2       = 2
	labelK3         = 3
	labelIV3        = 4
	labelMAC3       = 6
	labelPRKOut     = 7
	labelK4         = 8
	labelIV4        = 9
	labelPRKExport  = 10
)
