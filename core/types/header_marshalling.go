// Copyright 2021 The go-ethereum Authors
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
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// headerJSON is the JSON representation of headers, using the field names of
// the eth_getBlockByHash RPC. The seal is given either as mixHash and nonce or
// as raw sealFields.
type headerJSON struct {
	ParentHash   *common.Hash    `json:"parentHash"`
	UncleHash    *common.Hash    `json:"sha3Uncles"`
	Author       *common.Address `json:"miner"`
	StateRoot    *common.Hash    `json:"stateRoot"`
	TxRoot       *common.Hash    `json:"transactionsRoot"`
	ReceiptsRoot *common.Hash    `json:"receiptsRoot"`
	Bloom        *Bloom          `json:"logsBloom"`
	Difficulty   *hexutil.Big    `json:"difficulty"`
	Number       *hexutil.Uint64 `json:"number"`
	GasLimit     *hexutil.Big    `json:"gasLimit"`
	GasUsed      *hexutil.Big    `json:"gasUsed"`
	Time         *hexutil.Uint64 `json:"timestamp"`
	Extra        *hexutil.Bytes  `json:"extraData"`

	MixHash    *common.Hash    `json:"mixHash,omitempty"`
	Nonce      *BlockNonce     `json:"nonce,omitempty"`
	SealFields []hexutil.Bytes `json:"sealFields,omitempty"`

	// Hash is emitted on encoding. On decoding it is taken as the hash the
	// submitter claims for the header.
	Hash *common.Hash `json:"hash,omitempty"`
}

// MarshalJSON marshals as JSON with a hash.
func (h *Header) MarshalJSON() ([]byte, error) {
	var enc headerJSON
	hash := h.Hash()
	enc.Hash = &hash
	enc.ParentHash = &h.parentHash
	enc.UncleHash = &h.uncleHash
	enc.Author = &h.author
	enc.StateRoot = &h.stateRoot
	enc.TxRoot = &h.txRoot
	enc.ReceiptsRoot = &h.receiptsRoot
	enc.Bloom = &h.bloom
	enc.Difficulty = (*hexutil.Big)(h.difficulty)
	enc.Number = (*hexutil.Uint64)(&h.number)
	enc.GasLimit = (*hexutil.Big)(h.gasLimit)
	enc.GasUsed = (*hexutil.Big)(h.gasUsed)
	enc.Time = (*hexutil.Uint64)(&h.time)
	extra := hexutil.Bytes(h.extra)
	enc.Extra = &extra
	if seal, err := ParseSeal(h.seal); err == nil {
		enc.MixHash = &seal.MixHash
		enc.Nonce = &seal.Nonce
	} else {
		for _, item := range h.seal {
			enc.SealFields = append(enc.SealFields, hexutil.Bytes(item))
		}
	}
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals from JSON.
func (h *Header) UnmarshalJSON(input []byte) error {
	var dec headerJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.ParentHash == nil {
		return errors.New("missing required field 'parentHash' in header")
	}
	if dec.UncleHash == nil {
		return errors.New("missing required field 'sha3Uncles' in header")
	}
	if dec.Author == nil {
		return errors.New("missing required field 'miner' in header")
	}
	if dec.StateRoot == nil {
		return errors.New("missing required field 'stateRoot' in header")
	}
	if dec.TxRoot == nil {
		return errors.New("missing required field 'transactionsRoot' in header")
	}
	if dec.ReceiptsRoot == nil {
		return errors.New("missing required field 'receiptsRoot' in header")
	}
	if dec.Bloom == nil {
		return errors.New("missing required field 'logsBloom' in header")
	}
	if dec.Difficulty == nil {
		return errors.New("missing required field 'difficulty' in header")
	}
	if dec.Number == nil {
		return errors.New("missing required field 'number' in header")
	}
	if dec.GasLimit == nil {
		return errors.New("missing required field 'gasLimit' in header")
	}
	if dec.GasUsed == nil {
		return errors.New("missing required field 'gasUsed' in header")
	}
	if dec.Time == nil {
		return errors.New("missing required field 'timestamp' in header")
	}
	if dec.Extra == nil {
		return errors.New("missing required field 'extraData' in header")
	}

	header := NewHeader()
	header.parentHash = *dec.ParentHash
	header.uncleHash = *dec.UncleHash
	header.author = *dec.Author
	header.stateRoot = *dec.StateRoot
	header.txRoot = *dec.TxRoot
	header.receiptsRoot = *dec.ReceiptsRoot
	header.bloom = *dec.Bloom
	header.difficulty = new(big.Int).Set((*big.Int)(dec.Difficulty))
	header.number = uint64(*dec.Number)
	header.gasLimit = new(big.Int).Set((*big.Int)(dec.GasLimit))
	header.gasUsed = new(big.Int).Set((*big.Int)(dec.GasUsed))
	header.time = uint64(*dec.Time)
	header.extra = common.CopyBytes(*dec.Extra)

	switch {
	case dec.SealFields != nil:
		for _, item := range dec.SealFields {
			header.seal = append(header.seal, common.CopyBytes(item))
		}
	case dec.MixHash != nil && dec.Nonce != nil:
		header.seal = (&EthashSeal{MixHash: *dec.MixHash, Nonce: *dec.Nonce}).Items()
	default:
		return errors.New("missing required fields 'mixHash' and 'nonce' in header")
	}
	if dec.Hash != nil {
		header.SetClaimedHash(*dec.Hash)
	}
	*h = *header
	return nil
}
