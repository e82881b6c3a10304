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

import "fmt"

// BuildMessage4 encrypts the encoded EAD_4 items (empty when ead4 is
// empty) under K_4/IV_4 as an optional explicit confirmation that the
// Responder completed the handshake, transitioning M3_RCVD -> COMPLETED
// (callers that send no message_4 use Complete instead).
func (r *Responder) BuildMessage4(ead4 []EADItem) ([]byte, error) {
	if r.State != ResponderM3Rcvd {
		return nil, ErrWrongState
	}

	probe, err := r.suite.NewAEAD(make([]byte, r.suite.KeyLength))
	if err != nil {
		r.State = ResponderFailed
		return nil, fmt.Errorf("edhoc: construct aead: %w", err)
	}
	k4, iv4, err := Message4Keys(r.suite.Hash, r.prk4e3m, r.th4, r.suite.KeyLength, probe.NonceSize())
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	aead4, err := r.suite.NewAEAD(k4)
	if err != nil {
		r.State = ResponderFailed
		return nil, fmt.Errorf("edhoc: construct message_4 aead: %w", err)
	}

	plaintext4, err := encodeEADOnly(ead4)
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	ciphertext4, err := aead4.Seal(nil, iv4, plaintext4, r.th4)
	if err != nil {
		r.State = ResponderFailed
		return nil, fmt.Errorf("edhoc: encrypt message_4: %w", err)
	}

	msg4 := Message4{Ciphertext4: ciphertext4}
	encoded, err := msg4.Encode()
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	r.State = ResponderCompleted
	return encoded, nil
}

// ProcessMessage4 decrypts and discards the optional message_4
// confirmation, transitioning M3_SENT -> COMPLETED.
func (i *Initiator) ProcessMessage4(data []byte) error {
	if i.State != InitiatorM3Sent {
		return ErrWrongState
	}

	msg4, err := DecodeMessage4(data)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}

	probe, err := i.suite.NewAEAD(make([]byte, i.suite.KeyLength))
	if err != nil {
		i.State = InitiatorFailed
		return fmt.Errorf("edhoc: construct aead: %w", err)
	}
	k4, iv4, err := Message4Keys(i.suite.Hash, i.prk4e3m, i.th4, i.suite.KeyLength, probe.NonceSize())
	if err != nil {
		i.State = InitiatorFailed
		return err
	}
	aead4, err := i.suite.NewAEAD(k4)
	if err != nil {
		i.State = InitiatorFailed
		return fmt.Errorf("edhoc: construct message_4 aead: %w", err)
	}

	if _, err := aead4.Open(nil, iv4, msg4.Ciphertext4, i.th4); err != nil {
		i.State = InitiatorFailed
		i.logger().Warnf("message_4 decryption failed, c_i=%v", i.cI)
		return ErrAuthFailed
	}

	i.State = InitiatorCompleted
	return nil
}

func encodeEADOnly(items []EADItem) ([]byte, error) {
	p := Plaintext2{SignatureOrMAC: []byte{}, EAD2: items}
	b, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return b, nil
}
