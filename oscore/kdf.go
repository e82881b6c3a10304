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
)

// oscoreInfo builds the RFC 8613 §3.2 "info" CBOR array:
// [id, id_context, alg_aead, type, L]. type is "Key" or "IV"; an absent
// id_context (and an absent id) is encoded as an empty bstr rather than
// being left out of the array.
func oscoreInfo(id, idContext []byte, algID int, kind string, length int) ([]byte, error) {
	if idContext == nil {
		idContext = []byte{}
	}
	if id == nil {
		id = []byte{}
	}
	info := []interface{}{id, idContext, algID, kind, length}
	b, err := cbor.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode oscore info: %w", err)
	}
	return b, nil
}
