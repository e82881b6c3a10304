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
	"encoding/binary"
	"hash/crc32"

	"github.com/GiterLab/crc16"
)

// CRC32Bytes computes the IEEE CRC32 of data, used as the persisted
// context record's whole-body checksum.
func CRC32Bytes(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// crc16Table is the CRC16-MODBUS table used for the replay-window field
// checksum below.
var crc16Table = crc16.MakeTable(crc16.CRC16_MODBUS)

// CRC16Bytes computes the CRC16-MODBUS checksum of data.
func CRC16Bytes(data []byte) uint16 {
	h := crc16.New(crc16Table)
	h.Write(data)
	return h.Sum16()
}

// replayChecksum covers just the replay window's top/mask fields with a
// lighter CRC16, independent of the whole-record CRC32, so a restore
// path can tell "replay window corrupted" apart from "whole record
// corrupted" without re-decoding the full CBOR body.
func replayChecksum(top, mask uint64) uint16 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], top)
	binary.BigEndian.PutUint64(buf[8:16], mask)
	return CRC16Bytes(buf[:])
}
