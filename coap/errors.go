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

// Package coap implements the RFC 7252 CoAP packet model: header, token,
// options and payload, without transport, retransmission or blockwise
// transfer. It is the L1 parser/serializer layer consumed by the oscore
// and edhoc packages.
package coap

import "errors"

var (
	ErrTooSmall        = errors.New("too small bytes buffer")
	ErrInvalidTokenLen = errors.New("invalid token length")
	ErrInvalidVersion  = errors.New("invalid coap version")
	ErrMessageTruncated = errors.New("message is truncated")

	ErrOptionTruncated              = errors.New("option truncated")
	ErrOptionUnexpectedExtendMarker = errors.New("option unexpected extend marker")
	ErrOptionsTooSmall              = errors.New("too small options buffer")
	ErrOptionNotFound               = errors.New("option not found")
	ErrTooManyOptions               = errors.New("too many options")
)
