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
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Plaintext2 is PLAINTEXT_2: ID_CRED_R, Signature_or_MAC_2, ? EAD_2.
// ID_CRED_R is carried opaquely -- resolving it to an actual credential
// is the credential-storage collaborator's job, out of this module's
// scope.
type Plaintext2 struct {
	IDCredR        []byte
	SignatureOrMAC []byte
	EAD2           []EADItem
}

func (p Plaintext2) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(p.IDCredR); err != nil {
		return nil, fmt.Errorf("encode PLAINTEXT_2 id_cred_r: %w", err)
	}
	if err := enc.Encode(p.SignatureOrMAC); err != nil {
		return nil, fmt.Errorf("encode PLAINTEXT_2 signature_or_mac_2: %w", err)
	}
	if err := encodeEAD(enc, p.EAD2); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePlaintext2(data []byte) (Plaintext2, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))
	var idCredR, sigOrMAC []byte
	if err := dec.Decode(&idCredR); err != nil {
		return Plaintext2{}, fmt.Errorf("decode PLAINTEXT_2 id_cred_r: %w", err)
	}
	if err := dec.Decode(&sigOrMAC); err != nil {
		return Plaintext2{}, fmt.Errorf("decode PLAINTEXT_2 signature_or_mac_2: %w", err)
	}
	ead, err := decodeEAD(dec)
	if err != nil {
		return Plaintext2{}, err
	}
	return Plaintext2{IDCredR: idCredR, SignatureOrMAC: sigOrMAC, EAD2: ead}, nil
}

// Plaintext3 is PLAINTEXT_3: ID_CRED_I, Signature_or_MAC_3, ? EAD_3.
type Plaintext3 struct {
	IDCredI        []byte
	SignatureOrMAC []byte
	EAD3           []EADItem
}

func (p Plaintext3) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(p.IDCredI); err != nil {
		return nil, fmt.Errorf("encode PLAINTEXT_3 id_cred_i: %w", err)
	}
	if err := enc.Encode(p.SignatureOrMAC); err != nil {
		return nil, fmt.Errorf("encode PLAINTEXT_3 signature_or_mac_3: %w", err)
	}
	if err := encodeEAD(enc, p.EAD3); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePlaintext3(data []byte) (Plaintext3, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))
	var idCredI, sigOrMAC []byte
	if err := dec.Decode(&idCredI); err != nil {
		return Plaintext3{}, fmt.Errorf("decode PLAINTEXT_3 id_cred_i: %w", err)
	}
	if err := dec.Decode(&sigOrMAC); err != nil {
		return Plaintext3{}, fmt.Errorf("decode PLAINTEXT_3 signature_or_mac_3: %w", err)
	}
	ead, err := decodeEAD(dec)
	if err != nil {
		return Plaintext3{}, err
	}
	return Plaintext3{IDCredI: idCredI, SignatureOrMAC: sigOrMAC, EAD3: ead}, nil
}
