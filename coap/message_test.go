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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "empty-ack",
			msg: Message{
				Code:      Empty,
				Type:      Acknowledgement,
				MessageID: 1,
			},
		},
		{
			name: "get-with-path-and-query",
			msg: Message{
				Code:      GET,
				Type:      Confirmable,
				MessageID: 0x1234,
				Token:     Token{1, 2, 3, 4},
				Opts: Options{}.
					Add(URIPath, "sensors").
					Add(URIPath, "temperature").
					Add(URIQuery, "unit=C"),
			},
		},
		{
			name: "response-with-payload",
			msg: Message{
				Code:      Content,
				Type:      Acknowledgement,
				MessageID: 42,
				Opts:      Options{}.Add(ContentFormat, AppCBOR),
				Payload:   []byte{0xa1, 0x01, 0x02},
			},
		},
		{
			name: "delta-boundaries",
			msg: Message{
				Code:      GET,
				Type:      NonConfirmable,
				MessageID: 7,
				Opts: Options{}.
					Add(OptionID(12), uint32(1)).
					Add(OptionID(25), uint32(2)).  // delta 13
					Add(OptionID(294), uint32(3)), // delta 269
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(tt.msg)
			require.NoError(t, err)

			got, err := ParseMessage(raw)
			require.NoError(t, err)
			require.Equal(t, tt.msg.Code, got.Code)
			require.Equal(t, tt.msg.Type, got.Type)
			require.Equal(t, tt.msg.MessageID, got.MessageID)
			require.Equal(t, tt.msg.Payload, got.Payload)
			require.Equal(t, len(tt.msg.Opts), len(got.Opts))
		})
	}
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	var m Message
	_, err := Decode([]byte{0x40, 0x01}, &m)
	require.ErrorIs(t, err, ErrMessageTruncated)
}

func TestDecodeRejectsInvalidVersion(t *testing.T) {
	var m Message
	_, err := Decode([]byte{0x00, 0x01, 0x00, 0x00}, &m)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestEncodeTooSmallReportsRequiredSize(t *testing.T) {
	m := Message{Code: GET, Type: Confirmable, MessageID: 1, Payload: []byte("hi")}
	size, err := Size(m)
	require.NoError(t, err)

	n, err := Encode(m, make([]byte, size-1))
	require.ErrorIs(t, err, ErrTooSmall)
	require.Equal(t, size, n)
}
