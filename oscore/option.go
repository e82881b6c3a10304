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

import "fmt"

const (
	optHFlagMask = 0x20
	optKFlagMask = 0x10
	optNMask     = 0x07
)

// OptionValue is the decoded form of an OSCORE option value (RFC 8613
// §6.1): a partial IV, an optional kid context, and an optional kid.
type OptionValue struct {
	PIV       []byte
	KIDContext []byte
	KID       []byte
	HasKID    bool
}

// EncodeOption serializes an OSCORE option value. Per §4.2.5, requests
// always set the k-bit (kid present, even if empty) -- this is
// RFC 8613-permitted and intentional, not an omission; see
// original_source/src/oscore/coap2oscore.c's oscore_option_generate.
func EncodeOption(v OptionValue, isRequest bool) ([]byte, error) {
	if len(v.PIV) > MaxPIVLen {
		return nil, fmt.Errorf("oscore: partial iv too long (%d > %d)", len(v.PIV), MaxPIVLen)
	}

	hasKID := v.HasKID || isRequest
	if len(v.PIV) == 0 && len(v.KIDContext) == 0 && !hasKID {
		return []byte{}, nil
	}

	first := byte(len(v.PIV) & optNMask)
	if len(v.KIDContext) > 0 {
		first |= optHFlagMask
	}
	if hasKID {
		first |= optKFlagMask
	}

	out := make([]byte, 0, 1+len(v.PIV)+1+len(v.KIDContext)+len(v.KID))
	out = append(out, first)
	out = append(out, v.PIV...)
	if len(v.KIDContext) > 0 {
		if len(v.KIDContext) > 255 {
			return nil, fmt.Errorf("oscore: kid context too long (%d > 255)", len(v.KIDContext))
		}
		out = append(out, byte(len(v.KIDContext)))
		out = append(out, v.KIDContext...)
	}
	if hasKID {
		out = append(out, v.KID...)
	}
	return out, nil
}

// DecodeOption parses an OSCORE option value back into its fields.
func DecodeOption(data []byte) (OptionValue, error) {
	if len(data) == 0 {
		return OptionValue{}, nil
	}

	first := data[0]
	n := int(first & optNMask)
	pos := 1
	if pos+n > len(data) {
		return OptionValue{}, ErrMalformedOption
	}
	piv := append([]byte(nil), data[pos:pos+n]...)
	pos += n

	var kidContext []byte
	if first&optHFlagMask != 0 {
		if pos >= len(data) {
			return OptionValue{}, ErrMalformedOption
		}
		s := int(data[pos])
		pos++
		if pos+s > len(data) {
			return OptionValue{}, ErrMalformedOption
		}
		kidContext = append([]byte(nil), data[pos:pos+s]...)
		pos += s
	}

	hasKID := first&optKFlagMask != 0
	var kid []byte
	if hasKID {
		kid = append([]byte(nil), data[pos:]...)
		pos = len(data)
	}

	if pos != len(data) {
		return OptionValue{}, ErrMalformedOption
	}

	return OptionValue{PIV: piv, KIDContext: kidContext, KID: kid, HasKID: hasKID}, nil
}
