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
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// OptionID identifies a CoAP option (RFC 7252 §5.10, RFC 8613 §2 for OSCORE).
type OptionID uint32

// Option IDs.
const (
	IfMatch       OptionID = 1
	URIHost       OptionID = 3
	ETag          OptionID = 4
	IfNoneMatch   OptionID = 5
	Observe       OptionID = 6
	URIPort       OptionID = 7
	LocationPath  OptionID = 8
	OSCORE        OptionID = 9
	URIPath       OptionID = 11
	ContentFormat OptionID = 12
	MaxAge        OptionID = 14
	URIQuery      OptionID = 15
	Accept        OptionID = 17
	LocationQuery OptionID = 20
	Block2        OptionID = 23
	Block1        OptionID = 27
	Size2         OptionID = 28
	ProxyURI      OptionID = 35
	ProxyScheme   OptionID = 39
	Size1         OptionID = 60
	Echo          OptionID = 252
	NoResponse    OptionID = 258
)

var optionIDToString = map[OptionID]string{
	IfMatch:       "IfMatch",
	URIHost:       "URIHost",
	ETag:          "ETag",
	IfNoneMatch:   "IfNoneMatch",
	Observe:       "Observe",
	URIPort:       "URIPort",
	LocationPath:  "LocationPath",
	OSCORE:        "OSCORE",
	URIPath:       "URIPath",
	ContentFormat: "ContentFormat",
	MaxAge:        "MaxAge",
	URIQuery:      "URIQuery",
	Accept:        "Accept",
	LocationQuery: "LocationQuery",
	Block2:        "Block2",
	Block1:        "Block1",
	Size2:         "Size2",
	ProxyURI:      "ProxyURI",
	ProxyScheme:   "ProxyScheme",
	Size1:         "Size1",
	Echo:          "Echo",
	NoResponse:    "NoResponse",
}

func (o OptionID) String() string {
	str, ok := optionIDToString[o]
	if !ok {
		return "Option(" + strconv.FormatInt(int64(o), 10) + ")"
	}
	return str
}

// ValueFormat is the wire representation of an option value (RFC 7252 §3.2).
type ValueFormat uint8

const (
	ValueUnknown ValueFormat = iota
	ValueEmpty
	ValueOpaque
	ValueUint
	ValueString
)

// OptionDef describes the legal value length range and wire format of an option.
type OptionDef struct {
	MinLen      int
	MaxLen      int
	ValueFormat ValueFormat
}

// CoapOptionDefs is the standard RFC 7252 + RFC 8613 option table. OSCORE
// and Echo are opaque (their internal layout is interpreted by the oscore
// package, not by this one).
var CoapOptionDefs = map[OptionID]OptionDef{
	IfMatch:       {ValueFormat: ValueOpaque, MinLen: 0, MaxLen: 8},
	URIHost:       {ValueFormat: ValueString, MinLen: 1, MaxLen: 255},
	ETag:          {ValueFormat: ValueOpaque, MinLen: 1, MaxLen: 8},
	IfNoneMatch:   {ValueFormat: ValueEmpty, MinLen: 0, MaxLen: 0},
	Observe:       {ValueFormat: ValueUint, MinLen: 0, MaxLen: 3},
	URIPort:       {ValueFormat: ValueUint, MinLen: 0, MaxLen: 2},
	LocationPath:  {ValueFormat: ValueString, MinLen: 0, MaxLen: 255},
	OSCORE:        {ValueFormat: ValueOpaque, MinLen: 0, MaxLen: 255},
	URIPath:       {ValueFormat: ValueString, MinLen: 0, MaxLen: 255},
	ContentFormat: {ValueFormat: ValueUint, MinLen: 0, MaxLen: 2},
	MaxAge:        {ValueFormat: ValueUint, MinLen: 0, MaxLen: 4},
	URIQuery:      {ValueFormat: ValueString, MinLen: 0, MaxLen: 255},
	Accept:        {ValueFormat: ValueUint, MinLen: 0, MaxLen: 2},
	LocationQuery: {ValueFormat: ValueString, MinLen: 0, MaxLen: 255},
	Block2:        {ValueFormat: ValueUint, MinLen: 0, MaxLen: 3},
	Block1:        {ValueFormat: ValueUint, MinLen: 0, MaxLen: 3},
	Size2:         {ValueFormat: ValueUint, MinLen: 0, MaxLen: 4},
	ProxyURI:      {ValueFormat: ValueString, MinLen: 1, MaxLen: 1034},
	ProxyScheme:   {ValueFormat: ValueString, MinLen: 1, MaxLen: 255},
	Size1:         {ValueFormat: ValueUint, MinLen: 0, MaxLen: 4},
	Echo:          {ValueFormat: ValueOpaque, MinLen: 8, MaxLen: 40},
	NoResponse:    {ValueFormat: ValueUint, MinLen: 0, MaxLen: 1},
}

// VerifyOptLen checks valueLen against the (min, max) bounds for optionID.
func VerifyOptLen(optionDefs map[OptionID]OptionDef, optionID OptionID, valueLen int) bool {
	def := optionDefs[optionID]
	return valueLen >= def.MinLen && valueLen <= def.MaxLen
}

// Option is a single (number, value) pair. Value holds a string, []byte,
// MediaType or an unsigned integer type depending on the option's ValueFormat.
type Option struct {
	ID    OptionID
	Value interface{}
}

func encodeInt(v uint32) []byte {
	switch {
	case v == 0:
		return nil
	case v < 256:
		return []byte{byte(v)}
	case v < 65536:
		rv := []byte{0, 0}
		binary.BigEndian.PutUint16(rv, uint16(v))
		return rv
	case v < 16777216:
		rv := []byte{0, 0, 0, 0}
		binary.BigEndian.PutUint32(rv, v)
		return rv[1:]
	default:
		rv := []byte{0, 0, 0, 0}
		binary.BigEndian.PutUint32(rv, v)
		return rv
	}
}

func decodeInt(b []byte) uint32 {
	tmp := []byte{0, 0, 0, 0}
	copy(tmp[4-len(b):], b)
	return binary.BigEndian.Uint32(tmp)
}

const (
	extendOptionByteCode   = 13
	extendOptionByteAddend = 13
	extendOptionWordCode   = 14
	extendOptionWordAddend = 269
	extendOptionError      = 15
)

// extendOpt splits a delta or length into its 4-bit nibble plus an extension value.
func extendOpt(opt int) (int, int) {
	ext := 0
	if opt >= extendOptionByteAddend {
		if opt >= extendOptionWordAddend {
			ext = opt - extendOptionWordAddend
			opt = extendOptionWordCode
		} else {
			ext = opt - extendOptionByteAddend
			opt = extendOptionByteCode
		}
	}
	return opt, ext
}

func parseExtOpt(data []byte, opt int) (int, int, error) {
	switch opt {
	case extendOptionByteCode:
		if len(data) < 1 {
			return 0, -1, ErrOptionTruncated
		}
		return 1, int(data[0]) + extendOptionByteAddend, nil
	case extendOptionWordCode:
		if len(data) < 2 {
			return 0, -1, ErrOptionTruncated
		}
		return 2, int(binary.BigEndian.Uint16(data[:2])) + extendOptionWordAddend, nil
	}
	return 0, opt, nil
}

func marshalOptionHeaderExt(buf []byte, opt, ext int) (int, error) {
	switch opt {
	case extendOptionByteCode:
		if len(buf) > 0 {
			buf[0] = byte(ext)
			return 1, nil
		}
		return 1, ErrTooSmall
	case extendOptionWordCode:
		if len(buf) > 1 {
			binary.BigEndian.PutUint16(buf, uint16(ext))
			return 2, nil
		}
		return 2, ErrTooSmall
	}
	return 0, nil
}

func marshalOptionHeader(buf []byte, delta, length int) (int, error) {
	size := 0
	d, dx := extendOpt(delta)
	l, lx := extendOpt(length)

	if len(buf) > 0 {
		buf[0] = byte(d<<4) | byte(l)
		size++
	} else {
		buf = nil
		size++
	}

	var n int
	var err error
	if buf == nil {
		n, err = marshalOptionHeaderExt(nil, d, dx)
	} else {
		n, err = marshalOptionHeaderExt(buf[size:], d, dx)
	}
	if errors.Is(err, ErrTooSmall) {
		buf = nil
	} else if err != nil {
		return -1, err
	}
	size += n

	if buf == nil {
		n, err = marshalOptionHeaderExt(nil, l, lx)
	} else {
		n, err = marshalOptionHeaderExt(buf[size:], l, lx)
	}
	if errors.Is(err, ErrTooSmall) {
		buf = nil
	} else if err != nil {
		return -1, err
	}
	size += n

	if buf == nil {
		return size, ErrTooSmall
	}
	return size, nil
}

// ToBytes renders the option value as its wire bytes.
func (o Option) ToBytes() []byte {
	var v uint32
	switch i := o.Value.(type) {
	case string:
		return []byte(i)
	case []byte:
		return i
	case MediaType:
		v = uint32(i)
	case int:
		v = uint32(i)
	case int32:
		v = uint32(i)
	case uint:
		v = uint32(i)
	case uint32:
		v = i
	case nil:
		return nil
	default:
		panic(fmt.Errorf("invalid type for option %v: %T (%v)", o.ID, o.Value, o.Value))
	}
	return encodeInt(v)
}

func (o *Option) unmarshalValue(optionDefs map[OptionID]OptionDef, buf []byte) {
	def := optionDefs[o.ID]
	switch def.ValueFormat {
	case ValueUint:
		intValue := decodeInt(buf)
		if o.ID == ContentFormat || o.ID == Accept {
			o.Value = MediaType(intValue)
		} else {
			o.Value = intValue
		}
	case ValueString:
		o.Value = string(buf)
	default:
		v := make([]byte, len(buf))
		copy(v, buf)
		o.Value = v
	}
}

func (o Option) String() string {
	return fmt.Sprintf("ID:%s(%d) Value:%v", o.ID, o.ID, o.Value)
}
