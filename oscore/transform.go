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

	"github.com/GiterLab/go-edhoc-oscore/coap"
)

// EncodeRequest runs coap2oscore for an outbound request, §4.2.6.
func EncodeRequest(ctx *Context, msg coap.Message, observe bool) (coap.Message, error) {
	if msg.Code == coap.Empty && msg.Type == coap.Acknowledgement {
		return msg, nil
	}

	inner, outer, err := SplitOptions(msg.Opts, true)
	if err != nil {
		return coap.Message{}, err
	}
	if ctx.Reboot && len(ctx.echoValue) > 0 {
		inner = inner.Set(coap.Echo, ctx.echoValue)
	}
	plaintext, err := BuildPlaintext(msg.Code, inner, msg.Payload)
	if err != nil {
		return coap.Message{}, err
	}

	piv, err := ctx.NextSenderPIV()
	if err != nil {
		return coap.Message{}, err
	}
	ctx.CacheRequestIdentifiers(ctx.Sender.ID, piv)

	aad, err := BuildAAD(ctx.Common.AlgAEADID, ctx.Sender.ID, piv)
	if err != nil {
		return coap.Message{}, err
	}
	nonce, err := BuildNonce(ctx.Sender.ID, piv, ctx.Common.CommonIV)
	if err != nil {
		return coap.Message{}, err
	}

	ciphertext, err := ctx.Common.AlgAEAD.Seal(nil, nonce, plaintext, aad)
	if err != nil {
		return coap.Message{}, fmt.Errorf("oscore: encrypt request: %w", err)
	}

	optVal, err := EncodeOption(OptionValue{PIV: piv, KID: ctx.Sender.ID, HasKID: true}, true)
	if err != nil {
		return coap.Message{}, err
	}

	out := msg
	out.Opts = MergeOuter(outer, optVal)
	out.Payload = ciphertext
	if observe {
		out.Code = coap.FETCH
	} else {
		out.Code = coap.POST
	}
	return out, nil
}

// EncodeResponse runs coap2oscore for an outbound response, §4.2.6.
// requestPIV/requestKID are the identifiers cached from the matching
// request; freshPIV is non-nil only for observe notifications, which
// carry their own partial IV.
func EncodeResponse(ctx *Context, msg coap.Message, requestKID, requestPIV, freshPIV []byte, observe bool) (coap.Message, error) {
	if msg.Code == coap.Empty && msg.Type == coap.Acknowledgement {
		return msg, nil
	}

	inner, outer, err := SplitOptions(msg.Opts, false)
	if err != nil {
		return coap.Message{}, err
	}
	plaintext, err := BuildPlaintext(msg.Code, inner, msg.Payload)
	if err != nil {
		return coap.Message{}, err
	}

	aad, err := BuildAAD(ctx.Common.AlgAEADID, requestKID, requestPIV)
	if err != nil {
		return coap.Message{}, err
	}

	noncePIV := requestPIV
	if freshPIV != nil {
		noncePIV = freshPIV
	}
	nonce, err := BuildNonce(ctx.Sender.ID, noncePIV, ctx.Common.CommonIV)
	if err != nil {
		return coap.Message{}, err
	}

	ciphertext, err := ctx.Common.AlgAEAD.Seal(nil, nonce, plaintext, aad)
	if err != nil {
		return coap.Message{}, fmt.Errorf("oscore: encrypt response: %w", err)
	}

	var optVal []byte
	if freshPIV != nil {
		optVal, err = EncodeOption(OptionValue{PIV: freshPIV}, false)
		if err != nil {
			return coap.Message{}, err
		}
	}

	out := msg
	out.Opts = MergeOuter(outer, optVal)
	out.Payload = ciphertext
	if observe {
		out.Code = coap.Content
	} else {
		out.Code = coap.Changed
	}
	return out, nil
}

// DecodeRequest runs oscore2coap on an inbound request, §4.2.7.
// find must return the recipient Context for a given (kid, kidContext),
// or ErrContextNotFound if none matches.
func DecodeRequest(msg coap.Message, find func(kid, kidContext []byte) (*Context, error)) (coap.Message, *Context, error) {
	raw, ok := msg.Opts.First(coap.OSCORE)
	if !ok {
		return coap.Message{}, nil, ErrNoOscoreOption
	}
	rawBytes, _ := raw.Value.([]byte)
	optVal, err := DecodeOption(rawBytes)
	if err != nil {
		return coap.Message{}, nil, err
	}

	ctx, err := find(optVal.KID, optVal.KIDContext)
	if err != nil {
		return coap.Message{}, nil, err
	}

	piv := decodePIV(optVal.PIV)
	if !ctx.Recipient.Replay.Accept(piv) {
		ctx.logger().Warnf("rejected replayed partial IV %d from recipient %x", piv, ctx.Recipient.ID)
		return coap.Message{}, nil, ErrReplayed
	}

	aad, err := BuildAAD(ctx.Common.AlgAEADID, optVal.KID, optVal.PIV)
	if err != nil {
		return coap.Message{}, nil, err
	}
	nonce, err := BuildNonce(ctx.Recipient.ID, optVal.PIV, ctx.Common.CommonIV)
	if err != nil {
		return coap.Message{}, nil, err
	}

	plaintext, err := ctx.Common.AlgAEAD.Open(nil, nonce, msg.Payload, aad)
	if err != nil {
		ctx.logger().Warnf("decryption failed for partial IV %d from recipient %x", piv, ctx.Recipient.ID)
		return coap.Message{}, nil, ErrDecryptionFailed
	}
	ctx.Recipient.Replay.Advance(piv)
	ctx.CacheRequestIdentifiers(optVal.KID, optVal.PIV)

	code, inner, payload, err := ParsePlaintext(plaintext)
	if err != nil {
		return coap.Message{}, nil, err
	}

	out := msg
	out.Code = code
	out.Opts = MergeInbound(msg.Opts, inner)
	out.Payload = payload
	return out, ctx, nil
}

// DecodeResponse runs oscore2coap on an inbound response, §4.2.7. If
// ctx.Reboot is set, the response's Echo option must match ctx's
// outstanding challenge, or ErrEchoMismatch is returned.
func DecodeResponse(ctx *Context, msg coap.Message) (coap.Message, error) {
	requestKID, requestPIV := ctx.RequestIdentifiers()

	piv := requestPIV
	if raw, ok := msg.Opts.First(coap.OSCORE); ok {
		rawBytes, _ := raw.Value.([]byte)
		optVal, err := DecodeOption(rawBytes)
		if err != nil {
			return coap.Message{}, err
		}
		if len(optVal.PIV) > 0 {
			piv = optVal.PIV
		}
	}

	aad, err := BuildAAD(ctx.Common.AlgAEADID, requestKID, requestPIV)
	if err != nil {
		return coap.Message{}, err
	}
	nonce, err := BuildNonce(ctx.Recipient.ID, piv, ctx.Common.CommonIV)
	if err != nil {
		return coap.Message{}, err
	}

	plaintext, err := ctx.Common.AlgAEAD.Open(nil, nonce, msg.Payload, aad)
	if err != nil {
		return coap.Message{}, ErrDecryptionFailed
	}

	if ctx.Reboot {
		echoOpt, hasEcho := msg.Opts.First(coap.Echo)
		echoVal, _ := echoOpt.Value.([]byte)
		if !hasEcho || !bytes.Equal(echoVal, ctx.echoValue) {
			return coap.Message{}, ErrEchoMismatch
		}
		ctx.Reboot = false
	}

	code, inner, payload, err := ParsePlaintext(plaintext)
	if err != nil {
		return coap.Message{}, err
	}

	out := msg
	out.Code = code
	out.Opts = MergeInbound(msg.Opts, inner)
	out.Payload = payload
	return out, nil
}

// SetEchoChallenge records the Echo value expected on the next response
// after a reboot, and marks ctx so DecodeResponse enforces it.
func (c *Context) SetEchoChallenge(echo []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Reboot = true
	c.echoValue = append([]byte(nil), echo...)
}
