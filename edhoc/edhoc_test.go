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
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GiterLab/go-edhoc-oscore/cose"
	"github.com/GiterLab/go-edhoc-oscore/cryptoprim"
)

func sigSigSuite() Suite {
	return Suite{
		ID:        0,
		Hash:      sha256.New,
		HashLen:   sha256.Size,
		MACLength: 16,
		KeyLength: 16,
		NewAEAD: func(key []byte) (cose.AEAD, error) {
			return cryptoprim.NewAEAD(cryptoprim.AESGCM128, key)
		},
		ECDH:              cryptoprim.X25519,
		GenerateEphemeral: cryptoprim.X25519KeyPair,
	}
}

func TestHandshakeMethod0SigSigAgreesOnPRKOut(t *testing.T) {
	suite := sigSigSuite()

	iPub, iPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	rPub, rPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	credI := []byte("initiator-credential")
	credR := []byte("responder-credential")

	initiator := NewInitiator(InitiatorConfig{
		Suite:     suite,
		Method:    MethodSigSig,
		CI:        1,
		CredI:     credI,
		IDCredI:   []byte{0x01},
		Signer:    cryptoprim.Ed25519Signer{Private: iPriv},
		VerifierR: cryptoprim.Ed25519Verifier{Public: rPub},
	})
	responder := NewResponder(ResponderConfig{
		Suite:           suite,
		SupportedSuites: []int{0},
		CR:              2,
		CredR:           credR,
		IDCredR:         []byte{0x02},
		Signer:          cryptoprim.Ed25519Signer{Private: rPriv},
		VerifierI:       cryptoprim.Ed25519Verifier{Public: iPub},
	})

	msg1, err := initiator.BuildMessage1([]int{0}, nil)
	require.NoError(t, err)
	require.Equal(t, InitiatorM1Sent, initiator.State)

	err = responder.ProcessMessage1(msg1)
	require.NoError(t, err)
	require.Equal(t, ResponderM1Rcvd, responder.State)

	msg2, err := responder.BuildMessage2(nil)
	require.NoError(t, err)
	require.Equal(t, ResponderM2Sent, responder.State)

	resolveCredR := func(idCredR []byte) ([]byte, error) { return credR, nil }
	err = initiator.ProcessMessage2(msg2, resolveCredR)
	require.NoError(t, err)
	require.Equal(t, InitiatorM2Rcvd, initiator.State)

	msg3, err := initiator.BuildMessage3(nil)
	require.NoError(t, err)
	require.Equal(t, InitiatorM3Sent, initiator.State)

	resolveCredI := func(idCredI []byte) ([]byte, error) { return credI, nil }
	err = responder.ProcessMessage3(msg3, resolveCredI)
	require.NoError(t, err)
	require.Equal(t, ResponderM3Rcvd, responder.State)

	require.NoError(t, initiator.Complete())
	require.NoError(t, responder.Complete())

	iPRKOut, err := initiator.PRKOutValue()
	require.NoError(t, err)
	rPRKOut, err := responder.PRKOutValue()
	require.NoError(t, err)
	require.Equal(t, iPRKOut, rPRKOut)

	iExp, err := initiator.PRKExporterValue()
	require.NoError(t, err)
	rExp, err := responder.PRKExporterValue()
	require.NoError(t, err)
	require.Equal(t, iExp, rExp)
}

func TestSuiteRenegotiation(t *testing.T) {
	suite := sigSigSuite()

	_, iPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	initiator := NewInitiator(InitiatorConfig{Suite: suite, Method: MethodSigSig, CI: 1, Signer: cryptoprim.Ed25519Signer{Private: iPriv}})
	responder := NewResponder(ResponderConfig{Suite: suite, SupportedSuites: []int{0, 1}})

	msg1, err := initiator.BuildMessage1([]int{2}, nil)
	require.NoError(t, err)

	err = responder.ProcessMessage1(msg1)
	require.ErrorIs(t, err, ErrSuiteNegotiationFailed)
	require.Equal(t, ResponderM1Rcvd, responder.State)

	initiator2 := NewInitiator(InitiatorConfig{Suite: suite, Method: MethodSigSig, CI: 1, Signer: cryptoprim.Ed25519Signer{Private: iPriv}})
	msg1Retry, err := initiator2.BuildMessage1([]int{0}, nil)
	require.NoError(t, err)

	err = responder.ProcessMessage1(msg1Retry)
	require.NoError(t, err)
	require.Equal(t, ResponderM1Rcvd, responder.State)
}

func TestWrongStateRejected(t *testing.T) {
	suite := sigSigSuite()
	_, iPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	initiator := NewInitiator(InitiatorConfig{Suite: suite, Method: MethodSigSig, CI: 1, Signer: cryptoprim.Ed25519Signer{Private: iPriv}})

	_, err = initiator.BuildMessage3(nil)
	require.ErrorIs(t, err, ErrWrongState)
}
