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
	"fmt"

	"github.com/GiterLab/go-edhoc-oscore/cose"
	"github.com/GiterLab/go-edhoc-oscore/internal/logctx"
)

// InitiatorState is the Initiator's position in the linear state machine
// of §4.3.4: START -> M1_SENT -> M2_RCVD -> M3_SENT -> COMPLETED,
// with FAILED reachable from any state. Represented as a plain int enum
// (Go has no sum types) with each transition method checking the current
// state and returning ErrWrongState otherwise.
type InitiatorState int

const (
	InitiatorStart InitiatorState = iota
	InitiatorM1Sent
	InitiatorM2Rcvd
	InitiatorM3Sent
	InitiatorCompleted
	InitiatorFailed
)

// Initiator runs the Initiator side of an EDHOC handshake. A single
// Initiator value is not safe for concurrent use; callers serialize
// calls the way OSCORE's Context expects serialized transform calls.
type Initiator struct {
	State InitiatorState

	suite  Suite
	method Method

	cI     interface{}
	credI  []byte
	idCred []byte // ID_CRED_I, opaque

	signer       cose.Signer   // used when method.InitiatorUsesSignature()
	staticPriv   []byte        // used when method authenticates Initiator via static DH
	verifierR    cose.Verifier // used when method.ResponderUsesSignature()
	staticPubR   []byte        // Responder's static DH public key, otherwise

	ephemeralPub  []byte
	ephemeralPriv []byte
	message1      []byte

	gY []byte

	th2, th3, th4       []byte
	prk2e, prk3e2m, prk4e3m []byte
	prkOut, prkExporter []byte

	// Logger receives diagnostic events for authentication failures;
	// it defaults to logctx.Default.
	Logger logctx.Logger
}

func (i *Initiator) logger() logctx.Logger {
	if i.Logger == nil {
		return logctx.Default
	}
	return i.Logger
}

// InitiatorConfig collects the identity material an Initiator needs.
type InitiatorConfig struct {
	Suite      Suite
	Method     Method
	CI         interface{}
	CredI      []byte
	IDCredI    []byte
	Signer     cose.Signer
	StaticPriv []byte
	VerifierR  cose.Verifier
	StaticPubR []byte
}

// NewInitiator constructs an Initiator in the START state.
func NewInitiator(cfg InitiatorConfig) *Initiator {
	return &Initiator{
		State:      InitiatorStart,
		Logger:     logctx.Default,
		suite:      cfg.Suite,
		method:     cfg.Method,
		cI:         cfg.CI,
		credI:      cfg.CredI,
		idCred:     cfg.IDCredI,
		signer:     cfg.Signer,
		staticPriv: cfg.StaticPriv,
		verifierR:  cfg.VerifierR,
		staticPubR: cfg.StaticPubR,
	}
}

// BuildMessage1 generates a fresh ephemeral key pair and serializes
// message_1, transitioning START -> M1_SENT.
func (i *Initiator) BuildMessage1(suitesI []int, ead1 []EADItem) ([]byte, error) {
	if i.State != InitiatorStart {
		return nil, ErrWrongState
	}

	pub, priv, err := i.suite.GenerateEphemeral()
	if err != nil {
		i.State = InitiatorFailed
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	i.ephemeralPub, i.ephemeralPriv = pub, priv

	msg := Message1{Method: i.method, SuitesI: suitesI, GX: pub, CI: i.cI, EAD1: ead1}
	encoded, err := msg.Encode()
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}

	i.message1 = encoded
	i.State = InitiatorM1Sent
	return encoded, nil
}

// ProcessMessage2 decrypts and verifies message_2, transitioning
// M1_SENT -> M2_RCVD. credR is the Responder's credential bytes CRED_R,
// resolved by the caller's credential-storage collaborator from the
// ID_CRED_R carried in PLAINTEXT_2.
func (i *Initiator) ProcessMessage2(data []byte, resolveCredR func(idCredR []byte) ([]byte, error)) error {
	if i.State != InitiatorM1Sent {
		return ErrWrongState
	}

	msg2, err := DecodeMessage2(data)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}

	gLen := len(i.ephemeralPub)
	if len(msg2.GYCiphertext2) < gLen {
		i.State = InitiatorFailed
		return fmt.Errorf("edhoc: message_2 too short")
	}
	gY := msg2.GYCiphertext2[:gLen]
	ciphertext2 := msg2.GYCiphertext2[gLen:]
	i.gY = gY

	th2, err := TH2(i.suite.Hash, i.message1, gY)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}
	i.th2 = th2

	gXY, err := i.suite.ECDH(i.ephemeralPriv, gY)
	if err != nil {
		i.State = InitiatorFailed
		return fmt.Errorf("edhoc: ecdh with responder ephemeral key: %w", err)
	}
	i.prk2e = cose.Extract(i.suite.Hash, th2, gXY)

	keystream, err := Keystream2(i.suite.Hash, i.prk2e, th2, len(ciphertext2))
	if err != nil {
		i.State = InitiatorFailed
		return err
	}
	plaintext2 := XORKeystream(ciphertext2, keystream)

	p2, err := DecodePlaintext2(plaintext2)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}
	if _, err := ProcessEAD(p2.EAD2); err != nil {
		i.State = InitiatorFailed
		return err
	}

	credR, err := resolveCredR(p2.IDCredR)
	if err != nil {
		i.State = InitiatorFailed
		return fmt.Errorf("edhoc: resolve CRED_R: %w", err)
	}

	var gRX []byte
	if !i.method.ResponderUsesSignature() {
		gRX, err = i.suite.ECDH(i.ephemeralPriv, i.staticPubR)
		if err != nil {
			i.State = InitiatorFailed
			return fmt.Errorf("edhoc: ecdh with responder static key: %w", err)
		}
	}
	prk3e2m := DeriveMAC2PRK(i.suite.Hash, i.method, i.prk2e, gRX)
	i.prk3e2m = prk3e2m

	extAAD := SignatureOrMACExternalAAD(th2, credR, nil)
	mac2, err := MAC2(i.suite.Hash, prk3e2m, extAAD, i.suite.MACLength)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}

	ok, err := VerifySignatureOrMAC(i.verifierR, i.method.ResponderUsesSignature(), p2.SignatureOrMAC, mac2, extAAD)
	if err != nil || !ok {
		i.State = InitiatorFailed
		i.logger().Warnf("message_2 signature-or-MAC verification failed, c_i=%v", i.cI)
		return ErrAuthFailed
	}

	th3, err := TH3(i.suite.Hash, th2, plaintext2, credR)
	if err != nil {
		i.State = InitiatorFailed
		return err
	}
	i.th3 = th3

	i.State = InitiatorM2Rcvd
	return nil
}

// BuildMessage3 authenticates the Initiator and serializes message_3,
// transitioning M2_RCVD -> M3_SENT, and derives PRK_out/PRK_exporter.
func (i *Initiator) BuildMessage3(ead3 []EADItem) ([]byte, error) {
	if i.State != InitiatorM2Rcvd {
		return nil, ErrWrongState
	}

	var gIY []byte
	var err error
	if !i.method.InitiatorUsesSignature() {
		gIY, err = i.suite.ECDH(i.staticPriv, i.gY)
		if err != nil {
			i.State = InitiatorFailed
			return nil, fmt.Errorf("edhoc: ecdh with own static key: %w", err)
		}
	}
	prk4e3m := DeriveMAC3PRK(i.suite.Hash, i.method, i.prk3e2m, gIY)
	i.prk4e3m = prk4e3m

	extAAD := SignatureOrMACExternalAAD(i.th3, i.credI, nil)
	mac3, err := MAC3(i.suite.Hash, prk4e3m, extAAD, i.suite.MACLength)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}

	sigOrMAC, err := BuildSignatureOrMAC(i.signer, i.method.InitiatorUsesSignature(), mac3, extAAD)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}

	p3 := Plaintext3{IDCredI: i.idCred, SignatureOrMAC: sigOrMAC, EAD3: ead3}
	plaintext3, err := p3.Encode()
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}

	probe, err := i.suite.NewAEAD(make([]byte, i.suite.KeyLength))
	if err != nil {
		i.State = InitiatorFailed
		return nil, fmt.Errorf("edhoc: construct aead: %w", err)
	}
	k3, iv3, err := Message3Keys(i.suite.Hash, i.prk3e2m, i.th3, i.suite.KeyLength, probe.NonceSize())
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}
	aead3, err := i.suite.NewAEAD(k3)
	if err != nil {
		i.State = InitiatorFailed
		return nil, fmt.Errorf("edhoc: construct message_3 aead: %w", err)
	}
	aad, err := cose.BuildEdhocAAD(i.th3)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}
	ciphertext3, err := aead3.Seal(nil, iv3, plaintext3, aad)
	if err != nil {
		i.State = InitiatorFailed
		return nil, fmt.Errorf("edhoc: encrypt message_3: %w", err)
	}

	th4, err := TH4(i.suite.Hash, i.th3, plaintext3, i.credI)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}
	i.th4 = th4

	prkOut, err := PRKOut(i.suite.Hash, prk4e3m, th4, i.suite.HashLen)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}
	i.prkOut = prkOut
	prkExporter, err := PRKExporter(i.suite.Hash, prkOut, i.suite.HashLen)
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}
	i.prkExporter = prkExporter

	msg3 := Message3{Ciphertext3: ciphertext3}
	encoded, err := msg3.Encode()
	if err != nil {
		i.State = InitiatorFailed
		return nil, err
	}

	i.State = InitiatorM3Sent
	return encoded, nil
}

// Complete marks the session COMPLETED when no message_4 is expected.
func (i *Initiator) Complete() error {
	if i.State != InitiatorM3Sent {
		return ErrWrongState
	}
	i.State = InitiatorCompleted
	return nil
}

// PRKExporterValue returns PRK_exporter once message_3 has been built.
func (i *Initiator) PRKExporterValue() ([]byte, error) {
	if i.prkExporter == nil {
		return nil, ErrWrongState
	}
	return i.prkExporter, nil
}

// PRKOutValue returns PRK_out once message_3 has been built.
func (i *Initiator) PRKOutValue() ([]byte, error) {
	if i.prkOut == nil {
		return nil, ErrWrongState
	}
	return i.prkOut, nil
}

// Exporter derives application keying material from this session's
// PRK_exporter.
func (i *Initiator) Exporter(label int, context []byte, length int) ([]byte, error) {
	if i.prkExporter == nil {
		return nil, ErrWrongState
	}
	return Exporter(i.suite.Hash, i.prkExporter, label, context, length)
}
