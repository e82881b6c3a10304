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
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Message1 is EDHOC message_1: METHOD, SUITES_I, G_X, C_I, ? EAD_1.
// The wire form is a CBOR sequence (concatenated top-level items), not a
// single wrapped array, so it is encoded/decoded item-by-item rather
// than via a ",toarray" struct tag (that tag is reserved in this module
// for COSE_Encrypt0/COSE_Sign1, which RFC 9052 defines as true arrays).
type Message1 struct {
	Method  Method
	SuitesI []int
	GX      []byte
	CI      interface{}
	EAD1    []EADItem
}

// Encode serializes m as a CBOR sequence.
func (m Message1) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)

	suites := encodeSuites(m.SuitesI)
	for _, v := range []interface{}{int(m.Method), suites, m.GX, m.CI} {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode message_1: %w", err)
		}
	}
	if err := encodeEAD(enc, m.EAD1); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMessage1 parses a CBOR sequence into a Message1.
func DecodeMessage1(data []byte) (Message1, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))

	var method int
	var suites interface{}
	var gX []byte
	var cI interface{}
	for i, dst := range []interface{}{&method, &suites, &gX, &cI} {
		if err := dec.Decode(dst); err != nil {
			return Message1{}, fmt.Errorf("decode message_1 field %d: %w", i, err)
		}
	}
	ead, err := decodeEAD(dec)
	if err != nil {
		return Message1{}, err
	}
	return Message1{Method: Method(method), SuitesI: decodeSuites(suites), GX: gX, CI: cI, EAD1: ead}, nil
}

// Message2 is EDHOC message_2: (G_Y || CIPHERTEXT_2), C_R -- G_Y and
// CIPHERTEXT_2 are concatenated into a single bstr on the wire.
type Message2 struct {
	GYCiphertext2 []byte
	CR            interface{}
}

func (m Message2) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(m.GYCiphertext2); err != nil {
		return nil, fmt.Errorf("encode message_2 field 0: %w", err)
	}
	if err := enc.Encode(m.CR); err != nil {
		return nil, fmt.Errorf("encode message_2 field 1: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeMessage2(data []byte) (Message2, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))
	var gyCt2 []byte
	var cR interface{}
	if err := dec.Decode(&gyCt2); err != nil {
		return Message2{}, fmt.Errorf("decode message_2 field 0: %w", err)
	}
	if err := dec.Decode(&cR); err != nil {
		return Message2{}, fmt.Errorf("decode message_2 field 1: %w", err)
	}
	return Message2{GYCiphertext2: gyCt2, CR: cR}, nil
}

// Message3 is EDHOC message_3: CIPHERTEXT_3.
type Message3 struct {
	Ciphertext3 []byte
}

func (m Message3) Encode() ([]byte, error) {
	b, err := cbor.Marshal(m.Ciphertext3)
	if err != nil {
		return nil, fmt.Errorf("encode message_3: %w", err)
	}
	return b, nil
}

func DecodeMessage3(data []byte) (Message3, error) {
	var ct3 []byte
	if err := cbor.Unmarshal(data, &ct3); err != nil {
		return Message3{}, fmt.Errorf("decode message_3: %w", err)
	}
	return Message3{Ciphertext3: ct3}, nil
}

// Message4 is EDHOC message_4: CIPHERTEXT_4 (optional confirmation).
type Message4 struct {
	Ciphertext4 []byte
}

func (m Message4) Encode() ([]byte, error) {
	b, err := cbor.Marshal(m.Ciphertext4)
	if err != nil {
		return nil, fmt.Errorf("encode message_4: %w", err)
	}
	return b, nil
}

func DecodeMessage4(data []byte) (Message4, error) {
	var ct4 []byte
	if err := cbor.Unmarshal(data, &ct4); err != nil {
		return Message4{}, fmt.Errorf("decode message_4: %w", err)
	}
	return Message4{Ciphertext4: ct4}, nil
}

func encodeSuites(suites []int) interface{} {
	if len(suites) == 1 {
		return suites[0]
	}
	out := make([]interface{}, len(suites))
	for i, s := range suites {
		out[i] = s
	}
	return out
}

func decodeSuites(v interface{}) []int {
	switch t := v.(type) {
	case uint64:
		return []int{int(t)}
	case int64:
		return []int{int(t)}
	case []interface{}:
		out := make([]int, 0, len(t))
		for _, e := range t {
			switch n := e.(type) {
			case uint64:
				out = append(out, int(n))
			case int64:
				out = append(out, int(n))
			}
		}
		return out
	default:
		return nil
	}
}

// encodeEAD writes each item as a (label, value) pair; an absent value
// is written as an empty byte string rather than omitted, so decodeEAD
// can read fixed-arity pairs instead of needing lookahead to tell an
// EAD value apart from the next item's label.
func encodeEAD(enc *cbor.Encoder, items []EADItem) error {
	for _, item := range items {
		if err := enc.Encode(item.Label); err != nil {
			return fmt.Errorf("encode ead label: %w", err)
		}
		value := item.Value
		if value == nil {
			value = []byte{}
		}
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode ead value: %w", err)
		}
	}
	return nil
}

// decodeEAD drains any remaining (ead_label, ead_value) pairs from dec.
func decodeEAD(dec *cbor.Decoder) ([]EADItem, error) {
	var items []EADItem
	for {
		var label int
		if err := dec.Decode(&label); err != nil {
			if errors.Is(err, io.EOF) {
				return items, nil // EOF: no more EAD items
			}
			return nil, fmt.Errorf("decode ead label: %w", err)
		}
		var value []byte
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode ead value: %w", err)
		}
		items = append(items, EADItem{Label: label, Value: value})
	}
}
