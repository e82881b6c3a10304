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

package cryptoprim

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAESGCMSealOpenRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	a, err := NewAEAD(AESGCM128, key)
	require.NoError(t, err)

	nonce := make([]byte, a.NonceSize())
	aad := []byte("external_aad")
	pt := []byte("edhoc message 3 plaintext")

	ct, err := a.Seal(nil, nonce, pt, aad)
	require.NoError(t, err)
	require.NotEqual(t, pt, ct)

	got, err := a.Open(nil, nonce, ct, aad)
	require.NoError(t, err)
	require.Equal(t, pt, got)

	_, err = a.Open(nil, nonce, ct, []byte("wrong aad"))
	require.Error(t, err)
}

func TestChaCha20Poly1305SealOpenRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	a, err := NewAEAD(ChaCha20Poly1305, key)
	require.NoError(t, err)

	nonce := make([]byte, a.NonceSize())
	pt := []byte("oscore protected payload")

	ct, err := a.Seal(nil, nonce, pt, nil)
	require.NoError(t, err)

	got, err := a.Open(nil, nonce, ct, nil)
	require.NoError(t, err)
	require.Equal(t, pt, got)
}

func TestX25519KeyExchangeAgrees(t *testing.T) {
	iPub, iPriv, err := X25519KeyPair()
	require.NoError(t, err)
	rPub, rPriv, err := X25519KeyPair()
	require.NoError(t, err)

	secretI, err := X25519(iPriv, rPub)
	require.NoError(t, err)
	secretR, err := X25519(rPriv, iPub)
	require.NoError(t, err)

	require.Equal(t, secretI, secretR)
	require.NotEqual(t, iPub, rPub)
}

func TestEd25519SignVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	signer := Ed25519Signer{Private: priv}
	verifier := Ed25519Verifier{Public: pub}

	msg := []byte("Signature1 structure bytes")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	ok, err := verifier.Verify(msg, sig)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = verifier.Verify([]byte("tampered"), sig)
	require.NoError(t, err)
	require.False(t, ok)
}
