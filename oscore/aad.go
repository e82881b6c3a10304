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

package oscore

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/GiterLab/go-edhoc-oscore/cose"
)

// BuildAAD constructs the OSCORE Enc_structure (§4.2.4):
// ["Encrypt0", h'', [oscoreVersion, [algAEAD], requestKID, requestPIV, ""]].
// AAD is always built from the request's kid/piv, even for a response,
// so a single exchange shares one transcript binding.
func BuildAAD(algID int, requestKID, requestPIV []byte) ([]byte, error) {
	if requestKID == nil {
		requestKID = []byte{}
	}
	if requestPIV == nil {
		requestPIV = []byte{}
	}
	externalAAD, err := cbor.Marshal([]interface{}{
		1, // OSCORE version
		[]interface{}{algID},
		requestKID,
		requestPIV,
		"",
	})
	if err != nil {
		return nil, fmt.Errorf("encode oscore external_aad: %w", err)
	}
	return cose.BuildEncStructure(nil, externalAAD)
}

// BuildNonce constructs the AEAD nonce per RFC 8613 §5.2:
// (1 byte len(id)) || zero-pad(id, 5) || zero-pad(piv, n-6), XORed with
// the Common IV, where n is the AEAD's nonce length.
func BuildNonce(id, piv, commonIV []byte) ([]byte, error) {
	n := len(commonIV)
	if len(id) > 5 {
		return nil, fmt.Errorf("oscore: sender/recipient id too long for nonce (%d > 5)", len(id))
	}
	if len(piv) > n-6 {
		return nil, fmt.Errorf("oscore: partial iv too long for nonce (%d > %d)", len(piv), n-6)
	}

	buf := make([]byte, n)
	buf[0] = byte(len(id))
	copy(buf[1+(5-len(id)):6], id)
	copy(buf[n-len(piv):], piv)

	for i := range buf {
		buf[i] ^= commonIV[i]
	}
	return buf, nil
}
