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

// Package cose implements the subset of COSE (RFC 9052/9053) structures
// EDHOC and OSCORE build on top of: Encrypt0, Sign1, and their associated
// Enc_structure/Sig_structure byte strings. It does not implement the
// full COSE_Key, COSE_Mac0 or countersignature surface.
package cose

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// COSE algorithm identifiers (RFC 9053).
const (
	AlgorithmAESCCM1664128  = 10
	AlgorithmAESCCM16128128 = 30
	AlgorithmAESGCM128      = 1
	AlgorithmChaCha20Poly   = 24
	AlgorithmES256          = -7
	AlgorithmEdDSA          = -8
	AlgorithmHKDFSHA256     = -10
	AlgorithmHKDFSHA384     = -11
)

// COSE header labels (RFC 9052 §3.1) used by Encrypt0/Sign1.
const (
	HeaderLabelAlg       = 1
	HeaderLabelKid       = 4
	HeaderLabelIV        = 5
	HeaderLabelPartialIV = 6
)

// Encrypt0 is a COSE_Encrypt0 structure: [protected, unprotected, ciphertext].
// It uses the struct-tag array encoding, matching the shape the COSE_Mac0
// reference example (other_examples veraison-go-cose mac.go) models for
// array-of-fields COSE bodies.
type Encrypt0 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[interface{}]interface{}
	Ciphertext  []byte
}

// Sign1 is a COSE_Sign1 structure: [protected, unprotected, payload, signature].
type Sign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[interface{}]interface{}
	Payload     []byte
	Signature   []byte
}

// BuildEncStructure serializes the COSE Enc_structure
// ["Encrypt0", protected, external_aad] used as AEAD associated data.
//
// This is the general form; EDHOC's associated-data construction (§4.3.8
// of this module's expanded spec) always passes an empty protected field
// and a bare transcript hash as external_aad, matching
// original_source/modules/edhoc/src/associated_data_encode.c.
func BuildEncStructure(protected, externalAAD []byte) ([]byte, error) {
	s := []interface{}{"Encrypt0", protected, externalAAD}
	b, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode Enc_structure: %w", err)
	}
	return b, nil
}

// BuildEdhocAAD builds the EDHOC Enc_structure keyed only by a transcript
// hash: ["Encrypt0", h'', thX].
func BuildEdhocAAD(thX []byte) ([]byte, error) {
	return BuildEncStructure(nil, thX)
}

// BuildSigStructure serializes the COSE Sig_structure
// ["Signature1", protected, external_aad, payload] used as the signature
// input for Sign1. Grounded on scitt cose-sign.go's CreateCoseSign1.
func BuildSigStructure(protected, externalAAD, payload []byte) ([]byte, error) {
	s := []interface{}{"Signature1", protected, externalAAD, payload}
	b, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode Sig_structure: %w", err)
	}
	return b, nil
}

// Signer produces a detached signature over an arbitrary byte string.
type Signer interface {
	Sign(toBeSigned []byte) ([]byte, error)
}

// Verifier checks a detached signature over an arbitrary byte string.
type Verifier interface {
	Verify(toBeSigned, signature []byte) (bool, error)
}

// AEAD seals and opens ciphertext under a nonce and associated data. EDHOC
// and OSCORE both drive this interface rather than any concrete cipher
// package; cryptoprim provides reference implementations.
type AEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, aad []byte) ([]byte, error)
	Open(dst, nonce, ciphertext, aad []byte) ([]byte, error)
}

// EncryptEncrypt0 seals payload into a COSE_Encrypt0 ciphertext field using
// the given AEAD, nonce and external_aad, returning the assembled structure.
func EncryptEncrypt0(a AEAD, nonce, payload, protected, externalAAD []byte) (*Encrypt0, error) {
	aad, err := BuildEncStructure(protected, externalAAD)
	if err != nil {
		return nil, err
	}
	ct, err := a.Seal(nil, nonce, payload, aad)
	if err != nil {
		return nil, fmt.Errorf("encrypt0 seal: %w", err)
	}
	return &Encrypt0{Protected: protected, Ciphertext: ct}, nil
}

// DecryptEncrypt0 opens e's ciphertext field using the given AEAD, nonce
// and external_aad.
func DecryptEncrypt0(a AEAD, nonce []byte, e *Encrypt0, externalAAD []byte) ([]byte, error) {
	aad, err := BuildEncStructure(e.Protected, externalAAD)
	if err != nil {
		return nil, err
	}
	pt, err := a.Open(nil, nonce, e.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("encrypt0 open: %w", err)
	}
	return pt, nil
}

// SignSign1 signs payload and assembles a COSE_Sign1, matching
// scitt cose-sign.go's CreateCoseSign1.
func SignSign1(signer Signer, protected, externalAAD, payload []byte) (*Sign1, error) {
	toBeSigned, err := BuildSigStructure(protected, externalAAD, payload)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(toBeSigned)
	if err != nil {
		return nil, fmt.Errorf("sign1 sign: %w", err)
	}
	return &Sign1{Protected: protected, Payload: payload, Signature: sig}, nil
}

// VerifySign1 verifies s's signature, matching scitt cose-sign.go's
// VerifyCoseSign1.
func VerifySign1(verifier Verifier, s *Sign1, externalAAD []byte) (bool, error) {
	toBeSigned, err := BuildSigStructure(s.Protected, externalAAD, s.Payload)
	if err != nil {
		return false, err
	}
	return verifier.Verify(toBeSigned, s.Signature)
}
