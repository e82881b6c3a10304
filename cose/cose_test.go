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

package cose

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildEncStructureMatchesEdhocAssociatedData(t *testing.T) {
	thX := []byte{0x01, 0x02, 0x03}

	general, err := BuildEncStructure(nil, thX)
	require.NoError(t, err)

	viaHelper, err := BuildEdhocAAD(thX)
	require.NoError(t, err)

	require.Equal(t, general, viaHelper)
}

func TestEdhocKDFDeterministic(t *testing.T) {
	prk := make([]byte, 32)
	for i := range prk {
		prk[i] = byte(i)
	}

	out1, err := EdhocKDF(sha256.New, prk, 7, []byte("context"), 32)
	require.NoError(t, err)
	require.Len(t, out1, 32)

	out2, err := EdhocKDF(sha256.New, prk, 7, []byte("context"), 32)
	require.NoError(t, err)
	require.Equal(t, out1, out2)

	out3, err := EdhocKDF(sha256.New, prk, 10, []byte("context"), 32)
	require.NoError(t, err)
	require.NotEqual(t, out1, out3)
}

func TestExtractThenExpand(t *testing.T) {
	salt := []byte("th2")
	ikm := []byte("shared-secret")

	prk := Extract(sha256.New, salt, ikm)
	require.Len(t, prk, sha256.Size)

	okm, err := Expand(sha256.New, prk, []byte("info"), 16)
	require.NoError(t, err)
	require.Len(t, okm, 16)
}
