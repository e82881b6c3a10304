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

	"github.com/GiterLab/go-edhoc-oscore/coap"
)

// BuildPlaintext serializes code || E-options || (0xFF || payload)? per §4.2.2.
func BuildPlaintext(code coap.Code, inner coap.Options, payload []byte) ([]byte, error) {
	size, err := inner.Marshal(nil)
	if err != nil && err != coap.ErrTooSmall {
		return nil, fmt.Errorf("size inner options: %w", err)
	}
	buf := make([]byte, size)
	n, err := inner.Marshal(buf)
	if err != nil {
		return nil, fmt.Errorf("marshal inner options: %w", err)
	}

	out := make([]byte, 0, 1+n+1+len(payload))
	out = append(out, byte(code))
	out = append(out, buf[:n]...)
	if len(payload) > 0 {
		out = append(out, 0xFF)
		out = append(out, payload...)
	}
	return out, nil
}

// ParsePlaintext is the inverse of BuildPlaintext.
func ParsePlaintext(plaintext []byte) (code coap.Code, inner coap.Options, payload []byte, err error) {
	if len(plaintext) == 0 {
		return 0, nil, nil, fmt.Errorf("oscore: empty plaintext")
	}
	code = coap.Code(plaintext[0])
	rest := plaintext[1:]

	n, err := inner.Unmarshal(rest, coap.CoapOptionDefs)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("unmarshal inner options: %w", err)
	}
	rest = rest[n:]
	if len(rest) > 0 {
		if rest[0] != 0xFF {
			return 0, nil, nil, fmt.Errorf("oscore: trailing bytes without payload marker")
		}
		payload = rest[1:]
	}
	return code, inner, payload, nil
}
