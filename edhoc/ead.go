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

// EADItem is one External Authorization Data item: a CBOR sequence
// (ead_label, ? ead_value). A negative label marks the item critical
// (RFC 9528 §3.8).
type EADItem struct {
	Label int
	Value []byte
}

// Critical reports whether e must be understood by the receiver.
func (e EADItem) Critical() bool { return e.Label < 0 }

// knownEADLabels is the set of EAD labels this module understands.
// Extend as EAD-backed application profiles are added; an empty set is
// valid and means only non-critical items are ever tolerated.
var knownEADLabels = map[int]bool{}

// ProcessEAD validates a list of EAD items: unknown critical items fail
// with ErrUnknownCriticalEAD; unknown non-critical items are returned
// unchanged for the caller to archive in its own transcript record (they
// are already bound into TH_3/TH_4 because they travel inside
// PLAINTEXT_2/PLAINTEXT_3).
func ProcessEAD(items []EADItem) ([]EADItem, error) {
	for _, item := range items {
		if item.Critical() && !knownEADLabels[item.Label] {
			return nil, ErrUnknownCriticalEAD
		}
	}
	return items, nil
}
