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
	"errors"
	"fmt"
	"sort"
)

// Options is the list of a message's options. Add and Set append, so the
// list may be out of ID order until Marshal (or Encode) sorts it. It is
// the aggregate the per-option wire codec in option.go is assembled into;
// callers build and query packets through it rather than through individual
// Option values.
type Options []Option

func (o Options) Len() int           { return len(o) }
func (o Options) Less(i, j int) bool { return o[i].ID < o[j].ID }
func (o Options) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }

// Minus returns a copy of o with every option of the given ID removed.
func (o Options) Minus(id OptionID) Options {
	rv := make(Options, 0, len(o))
	for _, opt := range o {
		if opt.ID != id {
			rv = append(rv, opt)
		}
	}
	return rv
}

// Has reports whether o contains at least one option with the given ID.
func (o Options) Has(id OptionID) bool {
	for _, opt := range o {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// First returns the first option with the given ID.
func (o Options) First(id OptionID) (Option, bool) {
	for _, opt := range o {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// All returns every option with the given ID, in order.
func (o Options) All(id OptionID) Options {
	var rv Options
	for _, opt := range o {
		if opt.ID == id {
			rv = append(rv, opt)
		}
	}
	return rv
}

// Add appends an option, preserving any existing options with the same ID.
func (o Options) Add(id OptionID, val interface{}) Options {
	return append(o, Option{ID: id, Value: val})
}

// Set replaces every option of the given ID with a single new one.
func (o Options) Set(id OptionID, val interface{}) Options {
	return o.Minus(id).Add(id, val)
}

// Path returns the URI-Path option values, one slice element per segment.
func (o Options) Path() ([]string, error) {
	rv := o.stringValues(URIPath)
	if rv == nil {
		return nil, ErrOptionNotFound
	}
	return rv, nil
}

// SetPath rewrites the URI-Path options from a slice of segments.
func (o Options) SetPath(segments []string) Options {
	rv := o.Minus(URIPath)
	for _, s := range segments {
		rv = rv.Add(URIPath, s)
	}
	return rv
}

// Queries returns the URI-Query option values.
func (o Options) Queries() ([]string, error) {
	rv := o.stringValues(URIQuery)
	if rv == nil {
		return nil, ErrOptionNotFound
	}
	return rv, nil
}

func (o Options) stringValues(id OptionID) []string {
	var rv []string
	for _, opt := range o {
		if opt.ID == id {
			s, _ := opt.Value.(string)
			rv = append(rv, s)
		}
	}
	return rv
}

// ContentFormat returns the message's Content-Format option, if present.
func (o Options) ContentFormat() (MediaType, error) {
	opt, ok := o.First(ContentFormat)
	if !ok {
		return 0, ErrOptionNotFound
	}
	mt, ok := opt.Value.(MediaType)
	if !ok {
		return 0, fmt.Errorf("content-format option has unexpected value type %T", opt.Value)
	}
	return mt, nil
}

// GetUint32 returns the first option of the given ID as an unsigned integer.
func (o Options) GetUint32(id OptionID) (uint32, error) {
	opt, ok := o.First(id)
	if !ok {
		return 0, ErrOptionNotFound
	}
	switch v := opt.Value.(type) {
	case uint32:
		return v, nil
	case MediaType:
		return uint32(v), nil
	default:
		return 0, fmt.Errorf("option %v has non-uint value type %T", id, opt.Value)
	}
}

// GetBytes returns the first option of the given ID as raw bytes.
func (o Options) GetBytes(id OptionID) ([]byte, error) {
	opt, ok := o.First(id)
	if !ok {
		return nil, ErrOptionNotFound
	}
	switch v := opt.Value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("option %v has non-byte value type %T", id, opt.Value)
	}
}

// Marshal sorts o in place by option ID (a stable sort, so repeated
// options keep their relative order) and serializes it into buf. If buf
// is too small it returns the required size with ErrTooSmall; buf may
// then hold a partial encoding.
func (o Options) Marshal(buf []byte) (int, error) {
	sort.Stable(o)
	size := 0
	prev := 0
	small := buf == nil
	for _, opt := range o {
		value := opt.ToBytes()
		delta := int(opt.ID) - prev

		var n int
		var err error
		if small {
			n, err = marshalOptionHeader(nil, delta, len(value))
		} else {
			n, err = marshalOptionHeader(buf[size:], delta, len(value))
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrTooSmall):
			small = true
		default:
			return -1, err
		}
		size += n

		if !small {
			if len(buf) < size+len(value) {
				small = true
			} else {
				copy(buf[size:], value)
			}
		}
		size += len(value)
		prev = int(opt.ID)
	}
	if small {
		return size, ErrTooSmall
	}
	return size, nil
}

// Unmarshal parses options from data until the 0xFF payload marker or end
// of input, returning the number of bytes consumed (the marker itself is
// not consumed).
func (o *Options) Unmarshal(data []byte, optionDefs map[OptionID]OptionDef) (int, error) {
	prev := 0
	processed := 0
	result := (*o)[:0]

	for len(data) > 0 {
		if data[0] == 0xff {
			break
		}

		delta := int(data[0] >> 4)
		length := int(data[0] & 0x0f)
		if delta == extendOptionError || length == extendOptionError {
			return -1, ErrOptionUnexpectedExtendMarker
		}
		data = data[1:]
		processed++

		n, delta, err := parseExtOpt(data, delta)
		if err != nil {
			return -1, err
		}
		data = data[n:]
		processed += n

		n, length, err = parseExtOpt(data, length)
		if err != nil {
			return -1, err
		}
		data = data[n:]
		processed += n

		if len(data) < length {
			return -1, ErrOptionTruncated
		}

		id := OptionID(prev + delta)
		value := data[:length]
		data = data[length:]
		processed += length
		prev = int(id)

		if _, known := optionDefs[id]; known && !VerifyOptLen(optionDefs, id, length) {
			continue
		}
		opt := Option{ID: id}
		opt.unmarshalValue(optionDefs, value)
		result = append(result, opt)

		if len(result) > maxOptionCount {
			return -1, ErrTooManyOptions
		}
	}
	*o = result
	return processed, nil
}

// maxOptionCount bounds the number of options accepted from the wire,
// per the resource-bound requirement that buffers never silently grow.
const maxOptionCount = 64
