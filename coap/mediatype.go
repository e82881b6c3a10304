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

import "strconv"

// MediaType specifies the content type of a message (RFC 7252 §12.3).
type MediaType uint16

const (
	TextPlain       MediaType = 0
	AppCoseEncrypt0 MediaType = 16 // application/cose; cose-type="cose-encrypt0" (RFC 8152)
	AppCoseMac0     MediaType = 17 // application/cose; cose-type="cose-mac0" (RFC 8152)
	AppCoseSign1    MediaType = 18 // application/cose; cose-type="cose-sign1" (RFC 8152)
	AppLinkFormat   MediaType = 40
	AppOctets       MediaType = 42
	AppCBOR         MediaType = 60 // application/cbor (RFC 7049)
	AppCWT          MediaType = 61

	// AppCidEdhocCborSeq is the EDHOC transport media type (RFC 9528 §3.2.2).
	AppCidEdhocCborSeq MediaType = 64
)

var mediaTypeToString = map[MediaType]string{
	TextPlain:          "text/plain; charset=utf-8",
	AppCoseEncrypt0:    "application/cose; cose-type=\"cose-encrypt0\"",
	AppCoseMac0:        "application/cose; cose-type=\"cose-mac0\"",
	AppCoseSign1:       "application/cose; cose-type=\"cose-sign1\"",
	AppLinkFormat:      "application/link-format",
	AppOctets:          "application/octet-stream",
	AppCBOR:            "application/cbor",
	AppCWT:             "application/cwt",
	AppCidEdhocCborSeq: "application/cid-edhoc+cbor-seq",
}

func (c MediaType) String() string {
	str, ok := mediaTypeToString[c]
	if !ok {
		return "MediaType(" + strconv.FormatInt(int64(c), 10) + ")"
	}
	return str
}
