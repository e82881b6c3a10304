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

	"github.com/fxamacker/cbor/v2"

	"github.com/GiterLab/go-edhoc-oscore/cose"
)

// TH2 computes TH_2 = H(G_Y, H(message_1)), both bstr-wrapped CBOR
// sequence elements hashed together, per RFC 9528 §4.1.
func TH2(h cose.HashFunc, message1, gY []byte) ([]byte, error) {
	hm1 := h()
	hm1.Write(message1)
	digest1 := hm1.Sum(nil)

	seq, err := cbor.Marshal(gY)
	if err != nil {
		return nil, fmt.Errorf("encode TH_2 input: %w", err)
	}
	encDigest1, err := cbor.Marshal(digest1)
	if err != nil {
		return nil, fmt.Errorf("encode TH_2 input: %w", err)
	}
	seq = append(seq, encDigest1...)
	th := h()
	th.Write(seq)
	return th.Sum(nil), nil
}

// TH3 computes TH_3 = H(TH_2, PLAINTEXT_2, CRED_R), confirmed against
// original_source/modules/edhoc/cbor/encode_th3.c's encode_th3, which
// hashes the pair (TH_2, CIPHERTEXT_2) -- the same bytes PLAINTEXT_2
// decrypts from, so this module computes it from the plaintext side
// once decryption has completed.
func TH3(h cose.HashFunc, th2, plaintext2, credR []byte) ([]byte, error) {
	seq, err := cbor.Marshal([]interface{}{th2, plaintext2, credR})
	if err != nil {
		return nil, fmt.Errorf("encode TH_3 input: %w", err)
	}
	th := h()
	th.Write(seq)
	return th.Sum(nil), nil
}

// TH4 computes TH_4 = H(TH_3, PLAINTEXT_3, CRED_I).
func TH4(h cose.HashFunc, th3, plaintext3, credI []byte) ([]byte, error) {
	seq, err := cbor.Marshal([]interface{}{th3, plaintext3, credI})
	if err != nil {
		return nil, fmt.Errorf("encode TH_4 input: %w", err)
	}
	th := h()
	th.Write(seq)
	return th.Sum(nil), nil
}
