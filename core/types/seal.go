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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// EthashSealFields is the number of seal items an ethash header carries.
const EthashSealFields = 2

var (
	// ErrInvalidSealArity is returned if a header does not carry exactly a
	// mix hash and a nonce.
	ErrInvalidSealArity = errors.New("invalid seal arity")

	// ErrSealRlp is returned if a seal item is not the expected RLP string.
	ErrSealRlp = errors.New("seal rlp decode failure")
)

// EthashSeal is the decoded proof of work part of a header.
type EthashSeal struct {
	MixHash common.Hash
	Nonce   BlockNonce
}

// ParseSeal decodes the mix hash and nonce of an ethash header.
func ParseSeal(seal [][]byte) (*EthashSeal, error) {
	if len(seal) != EthashSealFields {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrInvalidSealArity, len(seal), EthashSealFields)
	}
	s := new(EthashSeal)
	if err := rlp.DecodeBytes(seal[0], &s.MixHash); err != nil {
		return nil, fmt.Errorf("%w: mix hash: %w", ErrSealRlp, err)
	}
	if err := rlp.DecodeBytes(seal[1], &s.Nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", ErrSealRlp, err)
	}
	return s, nil
}

// Items returns the seal as raw RLP items, ready for Header.SetSeal.
func (s *EthashSeal) Items() [][]byte {
	mix, _ := rlp.EncodeToBytes(s.MixHash)
	nonce, _ := rlp.EncodeToBytes(s.Nonce)
	return [][]byte{mix, nonce}
}

// MixDigest returns the mix hash of an ethash header, or the zero hash if the
// seal cannot be parsed.
func (h *Header) MixDigest() common.Hash {
	s, err := ParseSeal(h.seal)
	if err != nil {
		return common.Hash{}
	}
	return s.MixHash
}

// Nonce returns the nonce of an ethash header, or the zero nonce if the seal
// cannot be parsed.
func (h *Header) Nonce() BlockNonce {
	s, err := ParseSeal(h.seal)
	if err != nil {
		return BlockNonce{}
	}
	return s.Nonce
}

// SetEthashSeal replaces the seal with the given mix hash and nonce.
func (h *Header) SetEthashSeal(mix common.Hash, nonce BlockNonce) {
	h.SetSeal((&EthashSeal{MixHash: mix, Nonce: nonce}).Items())
}
