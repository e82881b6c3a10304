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

package coap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsMinusAndHas(t *testing.T) {
	opts := Options{}.Add(URIPath, "a").Add(OSCORE, []byte{0x09}).Add(URIPath, "b")
	require.True(t, opts.Has(OSCORE))

	stripped := opts.Minus(OSCORE)
	require.False(t, stripped.Has(OSCORE))
	require.Len(t, stripped, 2)
}

func TestOptionsPathAndQueries(t *testing.T) {
	opts := Options{}.SetPath([]string{"well-known", "edhoc"}).Add(URIQuery, "a=1")

	path, err := opts.Path()
	require.NoError(t, err)
	require.Equal(t, []string{"well-known", "edhoc"}, path)

	queries, err := opts.Queries()
	require.NoError(t, err)
	require.Equal(t, []string{"a=1"}, queries)
}

func TestOptionsUnmarshalPreservesUnknownOption(t *testing.T) {
	// option number 2 is not in CoapOptionDefs: delta=2, length=1, value=0xAA
	raw := []byte{0x21, 0xaa}
	var opts Options
	n, err := opts.Unmarshal(raw, CoapOptionDefs)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Len(t, opts, 1)
	require.Equal(t, OptionID(2), opts[0].ID)
	require.Equal(t, []byte{0xaa}, opts[0].Value)
}

func TestOptionsMarshalUnmarshalRoundTrip(t *testing.T) {
	opts := Options{}.
		Add(IfMatch, []byte{0x01}).
		Add(URIPath, "sensors").
		Add(ContentFormat, AppCBOR).
		Add(OSCORE, []byte{0x09, 0x01})

	buf, err := func() ([]byte, error) {
		size, err := opts.Marshal(nil)
		if err != nil && err != ErrTooSmall {
			return nil, err
		}
		b := make([]byte, size)
		_, err = opts.Marshal(b)
		return b, err
	}()
	require.NoError(t, err)

	var got Options
	n, err := got.Unmarshal(buf, CoapOptionDefs)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, len(opts), len(got))
	for i := range opts {
		require.Equal(t, opts[i].ID, got[i].ID)
	}
}
