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

// ResponderState is the Responder's position in the linear state machine
// of §4.3.5.
type ResponderState int

const (
	ResponderStart ResponderState = iota
	ResponderM1Rcvd
	ResponderM2Sent
	ResponderM3Rcvd
	ResponderCompleted
	ResponderFailed
)

// Responder runs the Responder side of an EDHOC handshake.
type Responder struct {
	State ResponderState

	suite          Suite
	supportedSuites []int

	cR     interface{}
	credR  []byte
	idCred []byte

	signer     cose.Signer
	staticPriv []byte
	verifierI  cose.Verifier
	staticPubI []byte

	ephemeralPub, ephemeralPriv []byte
	method                      Method
	message1                    []byte

	gX []byte

	th2, th3, th4           []byte
	prk2e, prk3e2m, prk4e3m []byte
	prkOut, prkExporter     []byte

	// Logger receives diagnostic events for suite negotiation and
	// authentication failures; it defaults to logctx.Default.
	Logger logctx.Logger
}

func (r *Responder) logger() logctx.Logger {
	if r.Logger == nil {
		return logctx.Default
	}
	return r.Logger
}

// ResponderConfig collects the identity material a Responder needs.
type ResponderConfig struct {
	Suite           Suite
	SupportedSuites []int
	CR              interface{}
	CredR           []byte
	IDCredR         []byte
	Signer          cose.Signer
	StaticPriv      []byte
	VerifierI       cose.Verifier
	StaticPubI      []byte
}

// NewResponder constructs a Responder in the START state.
func NewResponder(cfg ResponderConfig) *Responder {
	return &Responder{
		State:           ResponderStart,
		Logger:          logctx.Default,
		suite:           cfg.Suite,
		supportedSuites: cfg.SupportedSuites,
		cR:              cfg.CR,
		credR:           cfg.CredR,
		idCred:          cfg.IDCredR,
		signer:          cfg.Signer,
		staticPriv:      cfg.StaticPriv,
		verifierI:       cfg.VerifierI,
		staticPubI:      cfg.StaticPubI,
	}
}

// ProcessMessage1 parses message_1 and checks suite negotiation. On a
// suite mismatch it returns ErrSuiteNegotiationFailed and moves to
// M1_RCVD, where it accepts a fresh message_1 with the Responder's
// supported suites (§4.3.5, see TestSuiteRenegotiation).
func (r *Responder) ProcessMessage1(data []byte) error {
	if r.State != ResponderStart && r.State != ResponderM1Rcvd {
		return ErrWrongState
	}

	msg1, err := DecodeMessage1(data)
	if err != nil {
		r.State = ResponderFailed
		return err
	}

	if _, ok := SupportedSuites(r.supportedSuites, msg1.SuitesI); !ok {
		r.State = ResponderM1Rcvd
		r.logger().Infof("suite negotiation failed, offered=%v supported=%v", msg1.SuitesI, r.supportedSuites)
		return ErrSuiteNegotiationFailed
	}
	if _, err := ProcessEAD(msg1.EAD1); err != nil {
		r.State = ResponderFailed
		return err
	}

	r.method = msg1.Method
	r.gX = msg1.GX
	r.message1 = data
	r.State = ResponderM1Rcvd
	return nil
}

// BuildMessage2 generates an ephemeral key pair, authenticates the
// Responder, and serializes message_2, transitioning M1_RCVD -> M2_SENT.
func (r *Responder) BuildMessage2(ead2 []EADItem) ([]byte, error) {
	if r.State != ResponderM1Rcvd {
		return nil, ErrWrongState
	}

	pub, priv, err := r.suite.GenerateEphemeral()
	if err != nil {
		r.State = ResponderFailed
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	r.ephemeralPub, r.ephemeralPriv = pub, priv

	th2, err := TH2(r.suite.Hash, r.message1, pub)
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	r.th2 = th2

	gXY, err := r.suite.ECDH(priv, r.gX)
	if err != nil {
		r.State = ResponderFailed
		return nil, fmt.Errorf("edhoc: ecdh with initiator ephemeral key: %w", err)
	}
	r.prk2e = cose.Extract(r.suite.Hash, th2, gXY)

	var gRX []byte
	if !r.method.ResponderUsesSignature() {
		gRX, err = r.suite.ECDH(r.staticPriv, r.gX)
		if err != nil {
			r.State = ResponderFailed
			return nil, fmt.Errorf("edhoc: ecdh with own static key: %w", err)
		}
	}
	prk3e2m := DeriveMAC2PRK(r.suite.Hash, r.method, r.prk2e, gRX)
	r.prk3e2m = prk3e2m

	extAAD := SignatureOrMACExternalAAD(th2, r.credR, nil)
	mac2, err := MAC2(r.suite.Hash, prk3e2m, extAAD, r.suite.MACLength)
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	sigOrMAC, err := BuildSignatureOrMAC(r.signer, r.method.ResponderUsesSignature(), mac2, extAAD)
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}

	p2 := Plaintext2{IDCredR: r.idCred, SignatureOrMAC: sigOrMAC, EAD2: ead2}
	plaintext2, err := p2.Encode()
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}

	keystream, err := Keystream2(r.suite.Hash, r.prk2e, th2, len(plaintext2))
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	ciphertext2 := XORKeystream(plaintext2, keystream)

	th3, err := TH3(r.suite.Hash, th2, plaintext2, r.credR)
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}
	r.th3 = th3

	gyCt2 := append(append([]byte(nil), pub...), ciphertext2...)
	msg2 := Message2{GYCiphertext2: gyCt2, CR: r.cR}
	encoded, err := msg2.Encode()
	if err != nil {
		r.State = ResponderFailed
		return nil, err
	}

	r.State = ResponderM2Sent
	return encoded, nil
}

// ProcessMessage3 decrypts and verifies message_3, transitioning
// M2_SENT -> M3_RCVD, and derives PRK_out/PRK_exporter.
func (r *Responder) ProcessMessage3(data []byte, resolveCredI func(idCredI []byte) ([]byte, error)) error {
	if r.State != ResponderM2Sent {
		return ErrWrongState
	}

	msg3, err := DecodeMessage3(data)
	if err != nil {
		r.State = ResponderFailed
		return err
	}

	probe, err := r.suite.NewAEAD(make([]byte, r.suite.KeyLength))
	if err != nil {
		r.State = ResponderFailed
		return fmt.Errorf("edhoc: construct aead: %w", err)
	}
	k3, iv3, err := Message3Keys(r.suite.Hash, r.prk3e2m, r.th3, r.suite.KeyLength, probe.NonceSize())
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	aead3, err := r.suite.NewAEAD(k3)
	if err != nil {
		r.State = ResponderFailed
		return fmt.Errorf("edhoc: construct message_3 aead: %w", err)
	}
	aad, err := cose.BuildEdhocAAD(r.th3)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	plaintext3, err := aead3.Open(nil, iv3, msg3.Ciphertext3, aad)
	if err != nil {
		r.State = ResponderFailed
		return ErrAuthFailed
	}

	p3, err := DecodePlaintext3(plaintext3)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	if _, err := ProcessEAD(p3.EAD3); err != nil {
		r.State = ResponderFailed
		return err
	}

	credI, err := resolveCredI(p3.IDCredI)
	if err != nil {
		r.State = ResponderFailed
		return fmt.Errorf("edhoc: resolve CRED_I: %w", err)
	}

	var gIY []byte
	if !r.method.InitiatorUsesSignature() {
		gIY, err = r.suite.ECDH(r.ephemeralPriv, r.staticPubI)
		if err != nil {
			r.State = ResponderFailed
			return fmt.Errorf("edhoc: ecdh with initiator static key: %w", err)
		}
	}
	prk4e3m := DeriveMAC3PRK(r.suite.Hash, r.method, r.prk3e2m, gIY)
	r.prk4e3m = prk4e3m

	extAAD := SignatureOrMACExternalAAD(r.th3, credI, nil)
	mac3, err := MAC3(r.suite.Hash, prk4e3m, extAAD, r.suite.MACLength)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	ok, err := VerifySignatureOrMAC(r.verifierI, r.method.InitiatorUsesSignature(), p3.SignatureOrMAC, mac3, extAAD)
	if err != nil || !ok {
		r.State = ResponderFailed
		r.logger().Warnf("message_3 signature-or-MAC verification failed, c_r=%v", r.cR)
		return ErrAuthFailed
	}

	th4, err := TH4(r.suite.Hash, r.th3, plaintext3, credI)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	r.th4 = th4

	prkOut, err := PRKOut(r.suite.Hash, prk4e3m, th4, r.suite.HashLen)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	r.prkOut = prkOut
	prkExporter, err := PRKExporter(r.suite.Hash, prkOut, r.suite.HashLen)
	if err != nil {
		r.State = ResponderFailed
		return err
	}
	r.prkExporter = prkExporter

	r.State = ResponderM3Rcvd
	return nil
}

// Complete marks the session COMPLETED when no message_4 is sent.
func (r *Responder) Complete() error {
	if r.State != ResponderM3Rcvd {
		return ErrWrongState
	}
	r.State = ResponderCompleted
	return nil
}

// PRKExporterValue returns PRK_exporter once message_3 has been processed.
func (r *Responder) PRKExporterValue() ([]byte, error) {
	if r.prkExporter == nil {
		return nil, ErrWrongState
	}
	return r.prkExporter, nil
}

// PRKOutValue returns PRK_out once message_3 has been processed.
func (r *Responder) PRKOutValue() ([]byte, error) {
	if r.prkOut == nil {
		return nil, ErrWrongState
	}
	return r.prkOut, nil
}

// Exporter derives application keying material from this session's
// PRK_exporter.
func (r *Responder) Exporter(label int, context []byte, length int) ([]byte, error) {
	if r.prkExporter == nil {
		return nil, ErrWrongState
	}
	return Exporter(r.suite.Hash, r.prkExporter, label, context, length)
}
