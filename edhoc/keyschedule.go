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

import (
	"fmt"

	"github.com/GiterLab/go-edhoc-oscore/cose"
)

// DeriveMAC2PRK computes PRK_3e2m: PRK_2e directly for a signature
// Responder, or Extract(salt=PRK_2e, ikm=gRX) for a static-DH Responder
// (RFC 9528 §4.1.2).
func DeriveMAC2PRK(h cose.HashFunc, method Method, prk2e, gRX []byte) []byte {
	if method.ResponderUsesSignature() {
		return prk2e
	}
	return cose.Extract(h, prk2e, gRX)
}

// DeriveMAC3PRK computes PRK_4e3m analogously from the Initiator's side.
func DeriveMAC3PRK(h cose.HashFunc, method Method, prk3e2m, gIY []byte) []byte {
	if method.InitiatorUsesSignature() {
		return prk3e2m
	}
	return cose.Extract(h, prk3e2m, gIY)
}

// Keystream2 derives KEYSTREAM_2 used to XOR-mask PLAINTEXT_2 into
// CIPHERTEXT_2 (message 2 carries no AEAD tag of its own; it is
// authenticated later via MAC_2/Signature_or_MAC_2 over the transcript).
func Keystream2(h cose.HashFunc, prk2e, th2 []byte, length int) ([]byte, error) {
	return cose.EdhocKDF(h, prk2e, labelKeystream2, th2, length)
}

// XORKeystream masks data with stream, returning a new slice; data is not modified.
func XORKeystream(data, stream []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ stream[i%len(stream)]
	}
	return out
}

// MAC2 derives MAC_2 for static-DH Responder authentication.
func MAC2(h cose.HashFunc, prk3e2m, context []byte, macLength int) ([]byte, error) {
	return cose.EdhocKDF(h, prk3e2m, labelMAC2, context, macLength)
}

// MAC3 derives MAC_3 for static-DH Initiator authentication.
func MAC3(h cose.HashFunc, prk4e3m, context []byte, macLength int) ([]byte, error) {
	return cose.EdhocKDF(h, prk4e3m, labelMAC3, context, macLength)
}

// Message3Keys derives K_3/IV_3 used to AEAD-encrypt PLAINTEXT_3 into
// CIPHERTEXT_3.
func Message3Keys(h cose.HashFunc, prk3e2m, th3 []byte, keyLen, ivLen int) (k, iv []byte, err error) {
	k, err = cose.EdhocKDF(h, prk3e2m, labelK3, th3, keyLen)
	if err != nil {
		return nil, nil, fmt.Errorf("derive K_3: %w", err)
	}
	iv, err = cose.EdhocKDF(h, prk3e2m, labelIV3, th3, ivLen)
	if err != nil {
		return nil, nil, fmt.Errorf("derive IV_3: %w", err)
	}
	return k, iv, nil
}

// Message4Keys derives K_4/IV_4 for the optional message 4 confirmation.
func Message4Keys(h cose.HashFunc, prk4e3m, th4 []byte, keyLen, ivLen int) (k, iv []byte, err error) {
	k, err = cose.EdhocKDF(h, prk4e3m, labelK4, th4, keyLen)
	if err != nil {
		return nil, nil, fmt.Errorf("derive K_4: %w", err)
	}
	iv, err = cose.EdhocKDF(h, prk4e3m, labelIV4, th4, ivLen)
	if err != nil {
		return nil, nil, fmt.Errorf("derive IV_4: %w", err)
	}
	return k, iv, nil
}

// PRKOut derives PRK_out = EDHOC-KDF(PRK_4e3m, 7, TH_4, hash_len).
func PRKOut(h cose.HashFunc, prk4e3m, th4 []byte, hashLen int) ([]byte, error) {
	return cose.EdhocKDF(h, prk4e3m, labelPRKOut, th4, hashLen)
}

// PRKExporter derives PRK_exporter = EDHOC-KDF(PRK_out, 10, "", hash_len).
func PRKExporter(h cose.HashFunc, prkOut []byte, hashLen int) ([]byte, error) {
	return cose.EdhocKDF(h, prkOut, labelPRKExport, []byte{}, hashLen)
}

// Exporter derives application-specific keying material from PRK_exporter
// under an arbitrary label/context/length, mirroring RFC 9528 §4.2.1's
// EDHOC_Exporter interface.
func Exporter(h cose.HashFunc, prkExporter []byte, label int, context []byte, length int) ([]byte, error) {
	return cose.EdhocKDF(h, prkExporter, label, context, length)
}
