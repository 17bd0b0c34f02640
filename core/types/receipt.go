// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Transaction types a receipt can be tagged with.
const (
	LegacyTxType = iota
	AccessListTxType
	DynamicFeeTxType
)

var (
	errShortTypedReceipt = errors.New("typed receipt too short")
	errReceiptFields     = errors.New("receipt must have 3 or 4 fields")
)

// OutcomeKind tells which post-transaction commitment a receipt carries.
type OutcomeKind uint8

const (
	// OutcomeUnknown receipts have neither status nor state root (EIP-98).
	OutcomeUnknown OutcomeKind = iota
	// OutcomeStateRoot receipts commit to the intermediate state root.
	OutcomeStateRoot
	// OutcomeStatusCode receipts carry an EIP-658 status byte.
	OutcomeStatusCode
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStateRoot:
		return "state-root"
	case OutcomeStatusCode:
		return "status-code"
	default:
		return "unknown"
	}
}

// TransactionOutcome is the first field of a pre-Byzantium or Byzantium receipt.
type TransactionOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	StateRoot common.Hash `json:"stateRoot,omitempty"`
	Status    uint8       `json:"status,omitempty"`
}

// StatusOutcome returns an EIP-658 outcome.
func StatusOutcome(status uint8) TransactionOutcome {
	return TransactionOutcome{Kind: OutcomeStatusCode, Status: status}
}

// StateRootOutcome returns a pre-Byzantium outcome.
func StateRootOutcome(root common.Hash) TransactionOutcome {
	return TransactionOutcome{Kind: OutcomeStateRoot, StateRoot: root}
}

// LogEntry is a contract log as committed to by a receipt.
type LogEntry struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    []byte         `json:"data"`
}

// Bloom returns the bloom of the log address and all its topics.
func (l *LogEntry) Bloom() Bloom {
	var b Bloom
	b.Add(l.Address.Bytes())
	for _, topic := range l.Topics {
		b.Add(topic.Bytes())
	}
	return b
}

// Receipt is the consensus encoding of a transaction receipt.
type Receipt struct {
	Type     uint8              `json:"type"`
	Outcome  TransactionOutcome `json:"outcome"`
	GasUsed  *big.Int           `json:"cumulativeGasUsed"`
	LogBloom Bloom              `json:"logsBloom"`
	Logs     []*LogEntry        `json:"logs"`
}

// NewReceipt creates a legacy receipt whose bloom is derived from its logs.
func NewReceipt(outcome TransactionOutcome, gasUsed *big.Int, logs []*LogEntry) *Receipt {
	r := &Receipt{
		Outcome: outcome,
		GasUsed: new(big.Int).Set(gasUsed),
		Logs:    logs,
	}
	r.LogBloom = CreateBloom(logs)
	return r
}

// CreateBloom ORs together the blooms of all logs.
func CreateBloom(logs []*LogEntry) Bloom {
	var bin Bloom
	for _, l := range logs {
		lb := l.Bloom()
		for i := range bin {
			bin[i] |= lb[i]
		}
	}
	return bin
}

// EncodeRLP implements rlp.Encoder and writes the untyped receipt body.
func (r *Receipt) EncodeRLP(w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	l := buf.List()
	switch r.Outcome.Kind {
	case OutcomeStateRoot:
		buf.WriteBytes(r.Outcome.StateRoot[:])
	case OutcomeStatusCode:
		buf.WriteUint64(uint64(r.Outcome.Status))
	}
	gasUsed := r.GasUsed
	if gasUsed == nil {
		gasUsed = new(big.Int)
	}
	buf.WriteBigInt(gasUsed)
	buf.WriteBytes(r.LogBloom[:])
	logs := buf.List()
	for _, log := range r.Logs {
		entry := buf.List()
		buf.WriteBytes(log.Address[:])
		topics := buf.List()
		for _, topic := range log.Topics {
			buf.WriteBytes(topic[:])
		}
		buf.ListEnd(topics)
		buf.WriteBytes(log.Data)
		buf.ListEnd(entry)
	}
	buf.ListEnd(logs)
	buf.ListEnd(l)
	return buf.Flush()
}

// DecodeRLP implements rlp.Decoder for untyped receipt bodies.
func (r *Receipt) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Raw()
	if err != nil {
		return err
	}
	var items []rlp.RawValue
	if err := rlp.DecodeBytes(raw, &items); err != nil {
		return err
	}
	var dec Receipt
	body := items
	switch len(items) {
	case 3:
		dec.Outcome.Kind = OutcomeUnknown
	case 4:
		kind, content, _, err := rlp.Split(items[0])
		if err != nil {
			return err
		}
		switch {
		case kind != rlp.List && len(content) <= 1:
			dec.Outcome.Kind = OutcomeStatusCode
			if len(content) == 1 {
				dec.Outcome.Status = content[0]
			}
		default:
			dec.Outcome.Kind = OutcomeStateRoot
			if err := rlp.DecodeBytes(items[0], &dec.Outcome.StateRoot); err != nil {
				return fmt.Errorf("receipt state root: %w", err)
			}
		}
		body = items[1:]
	default:
		return fmt.Errorf("%w, have %d", errReceiptFields, len(items))
	}
	if err := rlp.DecodeBytes(body[0], &dec.GasUsed); err != nil {
		return fmt.Errorf("receipt gas used: %w", err)
	}
	if err := rlp.DecodeBytes(body[1], &dec.LogBloom); err != nil {
		return fmt.Errorf("receipt bloom: %w", err)
	}
	if err := rlp.DecodeBytes(body[2], &dec.Logs); err != nil {
		return fmt.Errorf("receipt logs: %w", err)
	}
	*r = dec
	return nil
}

// MarshalBinary returns the consensus encoding of the receipt. Typed receipts
// are prefixed with their type byte.
func (r *Receipt) MarshalBinary() ([]byte, error) {
	if r.Type == LegacyTxType {
		return rlp.EncodeToBytes(r)
	}
	var buf bytes.Buffer
	buf.WriteByte(r.Type)
	if err := r.EncodeRLP(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the consensus encoding of legacy or typed receipts.
func (r *Receipt) UnmarshalBinary(b []byte) error {
	if len(b) > 0 && b[0] > 0x7f {
		var dec Receipt
		if err := rlp.DecodeBytes(b, &dec); err != nil {
			return err
		}
		*r = dec
		return nil
	}
	if len(b) <= 1 {
		return errShortTypedReceipt
	}
	var dec Receipt
	if err := rlp.DecodeBytes(b[1:], &dec); err != nil {
		return err
	}
	dec.Type = b[0]
	*r = dec
	return nil
}

// DecodeReceipt decodes a receipt as stored in a receipts trie.
func DecodeReceipt(b []byte) (*Receipt, error) {
	r := new(Receipt)
	if err := r.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return r, nil
}

// Equal compares two receipts field by field.
func (r *Receipt) Equal(o *Receipt) bool {
	if r.Type != o.Type || r.Outcome != o.Outcome || r.LogBloom != o.LogBloom {
		return false
	}
	if (r.GasUsed == nil) != (o.GasUsed == nil) || (r.GasUsed != nil && r.GasUsed.Cmp(o.GasUsed) != 0) {
		return false
	}
	if len(r.Logs) != len(o.Logs) {
		return false
	}
	for i := range r.Logs {
		a, b := r.Logs[i], o.Logs[i]
		if a.Address != b.Address || !bytes.Equal(a.Data, b.Data) || len(a.Topics) != len(b.Topics) {
			return false
		}
		for j := range a.Topics {
			if a.Topics[j] != b.Topics[j] {
				return false
			}
		}
	}
	return true
}
