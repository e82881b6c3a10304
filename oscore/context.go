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
	"bytes"
	"fmt"
	"sync"

	"github.com/GiterLab/go-edhoc-oscore/cose"
	"github.com/GiterLab/go-edhoc-oscore/internal/logctx"
)

// MaxSSN is the upper bound on the Sender Sequence Number
// (RFC 8613 §7.2.1): 2^40 - 1. Once SSN reaches MaxSSN, NextSenderPIV
// fails with ErrSSNExhausted, so the last partial IV sent is MaxSSN - 1.
const MaxSSN uint64 = (1 << 40) - 1

// DefaultReplayWindowSize is the sliding replay-window width in bits.
const DefaultReplayWindowSize = 32

// MaxPIVLen is the maximum encoded length of a partial IV.
const MaxPIVLen = 5

// CommonContext holds the parameters shared by the sender and recipient
// halves of an OSCORE security context (RFC 8613 §3.1).
type CommonContext struct {
	MasterSecret []byte
	MasterSalt   []byte
	IDContext    []byte
	AlgAEAD      cose.AEAD
	AlgAEADID    int
	HKDFHash     cose.HashFunc
	CommonIV     []byte
}

// SenderContext holds the per-sender half of a context (RFC 8613 §3.2).
type SenderContext struct {
	ID  []byte
	Key []byte
	SSN uint64
}

// RecipientContext holds the per-recipient half of a context, including
// its replay window (RFC 8613 §3.2.1, §7.4).
type RecipientContext struct {
	ID     []byte
	Key    []byte
	Replay ReplayWindow
}

// Context is a full OSCORE security context plus the request/response
// state a coap2oscore/oscore2coap pipeline needs across a single
// request-response exchange.
type Context struct {
	mu sync.Mutex

	Common    CommonContext
	Sender    SenderContext
	Recipient RecipientContext

	// requestKID/requestPIV cache the request's identifiers so a
	// response AAD/nonce can be rebuilt without re-deriving them.
	requestKID []byte
	requestPIV []byte

	// Reboot causes the next outbound request to carry a fresh Echo
	// challenge, and the next inbound response to be checked against it.
	Reboot     bool
	echoValue  []byte
	exhausted  bool

	// Logger receives diagnostic events (replay rejection, SSN
	// exhaustion); it defaults to logctx.Default so callers never have
	// to set it.
	Logger logctx.Logger
}

// NewContext derives Common IV, Sender Key and Recipient Key from the
// master secret/salt via HKDF, following RFC 8613 §3.2's per-context KDF
// labels ("Key"/"IV"), with the info array built by oscoreInfo and fed
// to cose.Expand (not through cose.EdhocKDF).
func NewContext(masterSecret, masterSalt, idContext []byte, aead cose.AEAD, algID int, hash cose.HashFunc, senderID, recipientID []byte) (*Context, error) {
	if bytes.Equal(senderID, recipientID) {
		return nil, fmt.Errorf("oscore: sender id and recipient id must differ")
	}

	prk := cose.Extract(hash, masterSalt, masterSecret)

	senderKey, err := deriveContextKey(hash, prk, senderID, idContext, algID, "Key", aead.Overhead())
	if err != nil {
		return nil, fmt.Errorf("derive sender key: %w", err)
	}
	recipientKey, err := deriveContextKey(hash, prk, recipientID, idContext, algID, "Key", aead.Overhead())
	if err != nil {
		return nil, fmt.Errorf("derive recipient key: %w", err)
	}
	commonIV, err := deriveContextKey(hash, prk, nil, idContext, algID, "IV", aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("derive common iv: %w", err)
	}

	return &Context{
		Logger: logctx.Default,
		Common: CommonContext{
			MasterSecret: masterSecret,
			MasterSalt:   masterSalt,
			IDContext:    idContext,
			AlgAEAD:      aead,
			AlgAEADID:    algID,
			HKDFHash:     hash,
			CommonIV:     commonIV,
		},
		Sender:    SenderContext{ID: senderID, Key: senderKey},
		Recipient: RecipientContext{ID: recipientID, Key: recipientKey, Replay: NewReplayWindow(DefaultReplayWindowSize)},
	}, nil
}

// deriveContextKey implements RFC 8613's info structure:
// [id, id_context, alg_aead, type, L] fed through HKDF-Expand(PRK, info, L).
// The info is OSCORE's own CBOR array from oscoreInfo; it does not share
// cose.EdhocKDF's (label, context, length) sequence.
func deriveContextKey(h cose.HashFunc, prk, id, idContext []byte, algID int, kind string, length int) ([]byte, error) {
	info, err := oscoreInfo(id, idContext, algID, kind, length)
	if err != nil {
		return nil, err
	}
	return cose.Expand(h, prk, info, length)
}

// NextSenderPIV increments and returns the Sender Sequence Number as a
// minimal big-endian partial IV, failing once MaxSSN is reached.
func (c *Context) NextSenderPIV() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exhausted || c.Sender.SSN >= MaxSSN {
		c.exhausted = true
		c.logger().Warnf("sender sequence number exhausted for sender id %x", c.Sender.ID)
		return nil, ErrSSNExhausted
	}
	piv := c.Sender.SSN
	c.Sender.SSN++
	return encodePIV(piv), nil
}

// CacheRequestIdentifiers stores the (kid, piv) used to build a request's
// AAD, so the matching response can reuse them (§4.2.4).
func (c *Context) CacheRequestIdentifiers(kid, piv []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestKID = append([]byte(nil), kid...)
	c.requestPIV = append([]byte(nil), piv...)
}

// RequestIdentifiers returns the cached (kid, piv) from the last request
// this context built or received.
func (c *Context) RequestIdentifiers() (kid, piv []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestKID, c.requestPIV
}

// logger returns c.Logger, falling back to the package default for a
// Context built by a struct literal rather than NewContext/RestoreContext.
func (c *Context) logger() logctx.Logger {
	if c.Logger == nil {
		return logctx.Default
	}
	return c.Logger
}

// encodePIV renders a sequence number as the shortest non-empty
// big-endian byte string (RFC 8613 §3.2.2); values below 2^40 take at
// most MaxPIVLen bytes. The length is not checked here.
func encodePIV(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var buf [8]byte
	n := 0
	for tmp := v; tmp > 0; tmp >>= 8 {
		n++
	}
	for i := 0; i < n; i++ {
		buf[n-1-i] = byte(v >> (8 * i))
	}
	return buf[:n]
}

// decodePIV is the inverse of encodePIV.
func decodePIV(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
