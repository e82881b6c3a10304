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

// SignatureOrMACExternalAAD builds external_aad = TH_x || CRED || ? EAD
// for the Sig_structure a signature-authenticated party signs, per
// RFC 9528 §4.3. EAD is appended as its raw encoded bytes when present.
func SignatureOrMACExternalAAD(thX, cred []byte, ead []byte) []byte {
	out := append([]byte(nil), thX...)
	out = append(out, cred...)
	out = append(out, ead...)
	return out
}

// BuildSignatureOrMAC produces Signature_or_MAC_x: a detached signature
// over the MAC when the party authenticates by signature, or the bare
// MAC when it authenticates by static DH. Grounded directly on
// scitt cose-sign.go's Sig_structure shape via cose.BuildSigStructure /
// cose.SignSign1.
func BuildSignatureOrMAC(signer cose.Signer, usesSignature bool, mac, externalAAD []byte) ([]byte, error) {
	if !usesSignature {
		return mac, nil
	}
	sign1, err := cose.SignSign1(signer, nil, externalAAD, mac)
	if err != nil {
		return nil, fmt.Errorf("sign signature_or_mac: %w", err)
	}
	return sign1.Signature, nil
}

// VerifySignatureOrMAC checks Signature_or_MAC_x: a detached signature
// verification when the peer authenticates by signature, or a constant-time
// MAC comparison when the peer authenticates by static DH.
func VerifySignatureOrMAC(verifier cose.Verifier, usesSignature bool, sigOrMAC, mac, externalAAD []byte) (bool, error) {
	if !usesSignature {
		if len(sigOrMAC) != len(mac) {
			return false, nil
		}
		var diff byte
		for i := range mac {
			diff |= sigOrMAC[i] ^ mac[i]
		}
		return diff == 0, nil
	}
	sign1 := &cose.Sign1{Payload: mac, Signature: sigOrMAC}
	ok, err := cose.VerifySign1(verifier, sign1, externalAAD)
	if err != nil {
		return false, fmt.Errorf("verify signature_or_mac: %w", err)
	}
	return ok, nil
}
