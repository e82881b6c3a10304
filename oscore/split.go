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
	"sort"

	"github.com/GiterLab/go-edhoc-oscore/coap"
)

// MaxOptionCount bounds an option split's E or U list length.
const MaxOptionCount = 64

// classE is the set of option numbers classified E (protected, carried
// inside the OSCORE ciphertext) per RFC 8613 Table 4. Everything else is
// U (unprotected, carried as an outer option), grounded on
// original_source/src/oscore/coap2oscore.c's is_class_e classifier.
var classE = map[coap.OptionID]bool{
	coap.IfMatch:       true,
	coap.ETag:          true,
	coap.IfNoneMatch:   true,
	coap.LocationPath:  true,
	coap.URIPath:       true,
	coap.ContentFormat: true,
	coap.MaxAge:        true,
	coap.URIQuery:      true,
	coap.Accept:        true,
	coap.LocationQuery: true,
	coap.Block2:        true,
	coap.Block1:        true,
	coap.Size2:         true,
	coap.ProxyURI:      true,
	coap.ProxyScheme:   true,
	coap.Size1:         true,
}

// SplitOptions classifies opts into inner (E) and outer (U) lists.
// Observe is special: in a request it is duplicated into both lists; in
// a response it is carried only in U, with its inner appearance elided.
func SplitOptions(opts coap.Options, isRequest bool) (inner, outer coap.Options, err error) {
	for _, o := range opts {
		switch {
		case o.ID == coap.Observe:
			outer = append(outer, o)
			if isRequest {
				inner = append(inner, o)
			}
		case o.ID == coap.OSCORE:
			// never re-split an already-protected message
			continue
		case classE[o.ID]:
			inner = append(inner, o)
		default:
			outer = append(outer, o)
		}
	}
	if len(inner) > MaxOptionCount || len(outer) > MaxOptionCount {
		return nil, nil, ErrTooManyOptions
	}
	return inner, outer, nil
}

// MergeOuter inserts the OSCORE option into u (ascending option number
// order) and returns the merged list for an outbound outer message.
func MergeOuter(u coap.Options, oscoreValue []byte) coap.Options {
	merged := u.Add(coap.OSCORE, oscoreValue)
	return sortOptions(merged)
}

// MergeInbound rebuilds the decrypted message's options: outer U-options
// (minus OSCORE) merged with the decrypted E-options, ordered by ascending
// absolute option number, per §4.2.7 step 6.
func MergeInbound(outerU, innerE coap.Options) coap.Options {
	merged := append(coap.Options{}, outerU.Minus(coap.OSCORE)...)
	merged = append(merged, innerE...)
	return sortOptions(merged)
}

func sortOptions(o coap.Options) coap.Options {
	out := append(coap.Options{}, o...)
	sort.Sort(out)
	return out
}
