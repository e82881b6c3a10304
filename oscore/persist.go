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
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/GiterLab/go-edhoc-oscore/cose"
)

// PersistedContext mirrors the field list in this module's context
// persistence design: master secret/salt, ID context, sender/recipient
// IDs, algorithm ids, last-committed SSN and replay high-watermark.
// ReplayChecksum is a CRC16-MODBUS over ReplayTop/ReplayMask alone, so a
// restore path can distinguish "replay window corrupted" from "whole
// record corrupted" without re-decoding the CBOR body.
type PersistedContext struct {
	MasterSecret   []byte
	MasterSalt     []byte
	IDContext      []byte
	SenderID       []byte
	RecipientID    []byte
	AlgAEADID      int
	SenderSSN      uint64
	ReplayTop      uint64
	ReplayMask     uint64
	ReplayChecksum uint16
}

// validate checks the schema invariants a persisted record must satisfy
// regardless of whether its checksums are intact: a context with no
// master secret or with identical sender/recipient IDs could never have
// come from NewContext and is rejected rather than silently restored.
func (pc PersistedContext) validate() error {
	var errs *multierror.Error
	if len(pc.MasterSecret) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("oscore: persisted context missing master secret"))
	}
	if bytesEqual(pc.SenderID, pc.RecipientID) {
		errs = multierror.Append(errs, fmt.Errorf("oscore: persisted context sender/recipient ID collide"))
	}
	return errs.ErrorOrNil()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ContextStore is injected by the caller so this package never opens a
// file directly, mirroring the teacher's preference for small injected
// interfaces (message/message.go's Encoder/Decoder) and
// junbin-yang-dsoftbus-go's SessionKeyPersistor (Save/Load/Delete keyed
// by an id, registered rather than constructed in place).
type ContextStore interface {
	Save(id string, record []byte) error
	Load(id string) ([]byte, error)
	Delete(id string) error
}

// SaveContext CBOR-encodes pc and appends a CRC32 trailer (hash/crc32,
// matching the teacher's CRC32Bytes convention) so a torn write is
// detected on reload rather than silently accepted.
func SaveContext(store ContextStore, id string, pc PersistedContext) error {
	pc.ReplayChecksum = replayChecksum(pc.ReplayTop, pc.ReplayMask)

	body, err := cbor.Marshal(pc)
	if err != nil {
		return fmt.Errorf("oscore: encode persisted context: %w", err)
	}
	sum := CRC32Bytes(body)
	record := make([]byte, len(body)+4)
	copy(record, body)
	binary.BigEndian.PutUint32(record[len(body):], sum)

	if err := store.Save(id, record); err != nil {
		return fmt.Errorf("oscore: save persisted context: %w", err)
	}
	return nil
}

// LoadContext reads and validates a persisted context record. Checksum
// validation (whole-record CRC32, replay-field CRC16) and schema
// validation can fail independently of each other, so both run before
// returning and their failures are combined into a single
// *multierror.Error rather than stopping at the first one.
func LoadContext(store ContextStore, id string) (PersistedContext, error) {
	record, err := store.Load(id)
	if err != nil {
		return PersistedContext{}, fmt.Errorf("oscore: load persisted context: %w", err)
	}
	if len(record) < 4 {
		return PersistedContext{}, ErrChecksumMismatch
	}

	var errs *multierror.Error
	body, trailer := record[:len(record)-4], record[len(record)-4:]
	want := binary.BigEndian.Uint32(trailer)
	if CRC32Bytes(body) != want {
		errs = multierror.Append(errs, ErrChecksumMismatch)
	}

	var pc PersistedContext
	if err := cbor.Unmarshal(body, &pc); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("oscore: decode persisted context: %w", err))
		return PersistedContext{}, errs.ErrorOrNil()
	}
	if pc.ReplayChecksum != replayChecksum(pc.ReplayTop, pc.ReplayMask) {
		errs = multierror.Append(errs, fmt.Errorf("%w: replay window", ErrChecksumMismatch))
	}
	if err := pc.validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if errs.ErrorOrNil() != nil {
		return PersistedContext{}, errs.ErrorOrNil()
	}
	return pc, nil
}

// RestoreContext rebuilds a runtime Context from a persisted record,
// re-deriving keys via NewContext and then fast-forwarding the Sender
// SSN and Recipient replay window to their last-committed values. Per
// §5's invariants, a context restored with no persisted SSN must still
// be forced through SetEchoChallenge before its first send.
func RestoreContext(pc PersistedContext, aead cose.AEAD, hash cose.HashFunc) (*Context, error) {
	ctx, err := NewContext(pc.MasterSecret, pc.MasterSalt, pc.IDContext, aead, pc.AlgAEADID, hash, pc.SenderID, pc.RecipientID)
	if err != nil {
		return nil, err
	}
	ctx.Sender.SSN = pc.SenderSSN
	ctx.Recipient.Replay = ReplayWindow{size: DefaultReplayWindowSize, top: pc.ReplayTop, mask: pc.ReplayMask, init: pc.ReplayTop > 0 || pc.ReplayMask > 0}
	return ctx, nil
}
