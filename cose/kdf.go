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

package cose

import (
	"fmt"
	"hash"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"
)

// HashFunc is the small subset of a hash constructor EDHOC/OSCORE need
// for HKDF; SHA-256 and SHA-384 are the two RFC 9528 suites define.
type HashFunc func() hash.Hash

// Extract runs HKDF-Extract(salt, ikm) -> prk, matching the
// Extract-then-Expand idiom in cloudflare-cloudflared's odoh.go
// (suite.KDF.Extract / suite.KDF.Expand), specialized here to a plain
// HKDF hash rather than a full HPKE KDF suite object.
func Extract(h HashFunc, salt, ikm []byte) []byte {
	return hkdf.Extract(h, ikm, salt)
}

// Expand runs HKDF-Expand(prk, info, length) -> okm.
func Expand(h HashFunc, prk, info []byte, length int) ([]byte, error) {
	r := hkdf.Expand(h, prk, info)
	okm := make([]byte, length)
	if _, err := io.ReadFull(r, okm); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return okm, nil
}

// EdhocKDF implements EDHOC-KDF(prk, label, context, length) = Expand(prk, info)
// with info the CBOR sequence label, context, length (three data items
// encoded one after another, not wrapped in an array), per RFC 9528 §4.1.3.
func EdhocKDF(h HashFunc, prk []byte, label int, context []byte, length int) ([]byte, error) {
	var info []byte
	for _, item := range []interface{}{label, context, length} {
		enc, err := cbor.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode edhoc-kdf info: %w", err)
		}
		info = append(info, enc...)
	}
	return Expand(h, prk, info, length)
}
