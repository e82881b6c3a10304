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
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GiterLab/go-edhoc-oscore/coap"
	"github.com/GiterLab/go-edhoc-oscore/cose"
	"github.com/GiterLab/go-edhoc-oscore/cryptoprim"
)

func testContexts(t *testing.T) (client, server *Context) {
	t.Helper()
	masterSecret := make([]byte, 16)
	for i := range masterSecret {
		masterSecret[i] = byte(i + 1)
	}
	masterSalt := []byte{0x9e, 0x7c, 0xa9, 0x22, 0x23, 0x78, 0x63, 0x40}

	aeadClient, err := cryptoprim.NewAEAD(cryptoprim.AESGCM128, masterSecret)
	require.NoError(t, err)
	aeadServer, err := cryptoprim.NewAEAD(cryptoprim.AESGCM128, masterSecret)
	require.NoError(t, err)

	clientCtx, err := NewContext(masterSecret, masterSalt, nil, aeadClient, cose.AlgorithmAESGCM128, sha256.New, []byte{}, []byte{0x01})
	require.NoError(t, err)
	serverCtx, err := NewContext(masterSecret, masterSalt, nil, aeadServer, cose.AlgorithmAESGCM128, sha256.New, []byte{0x01}, []byte{})
	require.NoError(t, err)

	return clientCtx, serverCtx
}

func TestOptionEncodeDecodeRoundTrip(t *testing.T) {
	v := OptionValue{PIV: []byte{0x05}, KID: []byte{0x01}, HasKID: true}
	encoded, err := EncodeOption(v, true)
	require.NoError(t, err)

	got, err := DecodeOption(encoded)
	require.NoError(t, err)
	require.Equal(t, v.PIV, got.PIV)
	require.Equal(t, v.KID, got.KID)
	require.True(t, got.HasKID)
}

func TestOptionEncodeRequestAlwaysSetsKBit(t *testing.T) {
	encoded, err := EncodeOption(OptionValue{PIV: []byte{0x00}}, true)
	require.NoError(t, err)

	got, err := DecodeOption(encoded)
	require.NoError(t, err)
	require.True(t, got.HasKID)
	require.Empty(t, got.KID)
}

func TestRequestResponseRoundTrip(t *testing.T) {
	client, server := testContexts(t)

	req := coap.Message{
		Code: coap.GET,
		Type: coap.Confirmable,
		Opts: coap.Options{}.SetPath([]string{"sensors", "temp"}),
	}

	oscoreReq, err := EncodeRequest(client, req, false)
	require.NoError(t, err)
	require.Equal(t, coap.POST, oscoreReq.Code)
	require.True(t, oscoreReq.Opts.Has(coap.OSCORE))

	decoded, ctx, err := DecodeRequest(oscoreReq, func(kid, kidContext []byte) (*Context, error) {
		return server, nil
	})
	require.NoError(t, err)
	require.Same(t, server, ctx)
	require.Equal(t, coap.GET, decoded.Code)
	path, err := decoded.Opts.Path()
	require.NoError(t, err)
	require.Equal(t, []string{"sensors", "temp"}, path)

	resp := coap.Message{
		Code:    coap.Content,
		Type:    coap.Acknowledgement,
		Payload: []byte("21.5C"),
	}
	requestKID, requestPIV := server.RequestIdentifiers()
	oscoreResp, err := EncodeResponse(server, resp, requestKID, requestPIV, nil, false)
	require.NoError(t, err)

	finalResp, err := DecodeResponse(client, oscoreResp)
	require.NoError(t, err)
	require.Equal(t, coap.Content, finalResp.Code)
	require.Equal(t, []byte("21.5C"), finalResp.Payload)
}

func TestReplayRejectsRepeatedPIV(t *testing.T) {
	client, server := testContexts(t)

	req := coap.Message{Code: coap.GET, Type: coap.Confirmable}
	oscoreReq, err := EncodeRequest(client, req, false)
	require.NoError(t, err)

	_, _, err = DecodeRequest(oscoreReq, func(kid, kidContext []byte) (*Context, error) { return server, nil })
	require.NoError(t, err)

	_, _, err = DecodeRequest(oscoreReq, func(kid, kidContext []byte) (*Context, error) { return server, nil })
	require.ErrorIs(t, err, ErrReplayed)
}

func TestSSNExhaustionFailsPermanently(t *testing.T) {
	client, _ := testContexts(t)
	client.Sender.SSN = MaxSSN

	_, err := client.NextSenderPIV()
	require.ErrorIs(t, err, ErrSSNExhausted)

	_, err = client.NextSenderPIV()
	require.ErrorIs(t, err, ErrSSNExhausted)
}

func TestSplitOptionsObserveRequestDuplicated(t *testing.T) {
	opts := coap.Options{}.Add(coap.Observe, uint32(0)).Add(coap.URIPath, "res")
	inner, outer, err := SplitOptions(opts, true)
	require.NoError(t, err)
	require.True(t, inner.Has(coap.Observe))
	require.True(t, outer.Has(coap.Observe))
}

func TestSplitOptionsObserveResponseOuterOnly(t *testing.T) {
	opts := coap.Options{}.Add(coap.Observe, uint32(42))
	inner, outer, err := SplitOptions(opts, false)
	require.NoError(t, err)
	require.False(t, inner.Has(coap.Observe))
	require.True(t, outer.Has(coap.Observe))
}

func TestPersistedContextChecksumDetectsCorruption(t *testing.T) {
	store := newMemStore()
	pc := PersistedContext{
		MasterSecret: []byte{0x01, 0x02},
		MasterSalt:   []byte{0x03, 0x04},
		SenderID:     []byte{},
		RecipientID:  []byte{0x01},
		AlgAEADID:    cose.AlgorithmAESGCM128,
		SenderSSN:    5,
	}
	require.NoError(t, SaveContext(store, "ctx1", pc))

	got, err := LoadContext(store, "ctx1")
	require.NoError(t, err)
	require.Equal(t, pc.SenderSSN, got.SenderSSN)

	store.records["ctx1"][0] ^= 0xFF
	_, err = LoadContext(store, "ctx1")
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

type memStore struct {
	records map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{records: map[string][]byte{}}
}

func (m *memStore) Save(id string, record []byte) error {
	m.records[id] = append([]byte(nil), record...)
	return nil
}

func (m *memStore) Load(id string) ([]byte, error) {
	return m.records[id], nil
}

func (m *memStore) Delete(id string) error {
	delete(m.records, id)
	return nil
}
