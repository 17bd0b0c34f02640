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

// Package types contains the data types stored and verified by the relay.
package types

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

var (
	// EmptyRootHash is the root of an empty Merkle-Patricia trie.
	EmptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	// EmptyUncleHash is the keccak of the RLP encoding of an empty list.
	EmptyUncleHash = common.HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
)

// headerFields is the number of RLP items of a header before the seal.
const headerFields = 13

// Bloom is the 2048 bit log bloom filter of a block or receipt.
type Bloom = ethtypes.Bloom

// BytesToBloom converts a byte slice to a bloom filter.
func BytesToBloom(b []byte) Bloom { return ethtypes.BytesToBloom(b) }

// A BlockNonce is a 64-bit hash which proves (combined with the
// mix-hash) that a sufficient amount of computation has been carried
// out on a block.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// MarshalText encodes n as a hex string with 0x prefix.
func (n BlockNonce) MarshalText() ([]byte, error) {
	return hexutil.Bytes(n[:]).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *BlockNonce) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BlockNonce", input, n[:])
}

// Header is an Ethereum PoW block header.
//
// Fields are only reachable through getters and setters. Every setter that
// changes a value drops the memoized hash, so Hash never serves a digest of
// stale content.
type Header struct {
	parentHash   common.Hash
	time         uint64
	number       uint64
	author       common.Address
	txRoot       common.Hash
	uncleHash    common.Hash
	extra        []byte
	stateRoot    common.Hash
	receiptsRoot common.Hash
	bloom        Bloom
	gasUsed      *big.Int
	gasLimit     *big.Int
	difficulty   *big.Int
	seal         [][]byte

	// hash memoizes the keccak of the sealed encoding. It may also hold a hash
	// claimed by whoever supplied the header, see SetClaimedHash.
	hash *common.Hash
}

// NewHeader returns a header with zero values and empty trie roots.
func NewHeader() *Header {
	return &Header{
		txRoot:       EmptyRootHash,
		uncleHash:    EmptyUncleHash,
		stateRoot:    EmptyRootHash,
		receiptsRoot: EmptyRootHash,
		gasUsed:      new(big.Int),
		gasLimit:     new(big.Int),
		difficulty:   new(big.Int),
	}
}

func (h *Header) ParentHash() common.Hash   { return h.parentHash }
func (h *Header) Time() uint64              { return h.time }
func (h *Header) Number() uint64            { return h.number }
func (h *Header) Author() common.Address    { return h.author }
func (h *Header) TxRoot() common.Hash       { return h.txRoot }
func (h *Header) UncleHash() common.Hash    { return h.uncleHash }
func (h *Header) Extra() []byte             { return common.CopyBytes(h.extra) }
func (h *Header) StateRoot() common.Hash    { return h.stateRoot }
func (h *Header) ReceiptsRoot() common.Hash { return h.receiptsRoot }
func (h *Header) Bloom() Bloom              { return h.bloom }
func (h *Header) GasUsed() *big.Int         { return new(big.Int).Set(h.gasUsed) }
func (h *Header) GasLimit() *big.Int        { return new(big.Int).Set(h.gasLimit) }
func (h *Header) Difficulty() *big.Int      { return new(big.Int).Set(h.difficulty) }

// Seal returns a copy of the raw RLP seal items.
func (h *Header) Seal() [][]byte {
	return copySeal(h.seal)
}

func (h *Header) SetParentHash(val common.Hash) {
	if h.parentHash != val {
		h.parentHash = val
		h.hash = nil
	}
}

func (h *Header) SetTime(val uint64) {
	if h.time != val {
		h.time = val
		h.hash = nil
	}
}

func (h *Header) SetNumber(val uint64) {
	if h.number != val {
		h.number = val
		h.hash = nil
	}
}

func (h *Header) SetAuthor(val common.Address) {
	if h.author != val {
		h.author = val
		h.hash = nil
	}
}

func (h *Header) SetTxRoot(val common.Hash) {
	if h.txRoot != val {
		h.txRoot = val
		h.hash = nil
	}
}

func (h *Header) SetUncleHash(val common.Hash) {
	if h.uncleHash != val {
		h.uncleHash = val
		h.hash = nil
	}
}

func (h *Header) SetExtra(val []byte) {
	if !bytes.Equal(h.extra, val) {
		h.extra = common.CopyBytes(val)
		h.hash = nil
	}
}

func (h *Header) SetStateRoot(val common.Hash) {
	if h.stateRoot != val {
		h.stateRoot = val
		h.hash = nil
	}
}

func (h *Header) SetReceiptsRoot(val common.Hash) {
	if h.receiptsRoot != val {
		h.receiptsRoot = val
		h.hash = nil
	}
}

func (h *Header) SetBloom(val Bloom) {
	if h.bloom != val {
		h.bloom = val
		h.hash = nil
	}
}

// SetGasUsed, SetGasLimit and SetDifficulty store a copy of val. A nil value
// is stored as zero.
func (h *Header) SetGasUsed(val *big.Int) {
	val = bigOrZero(val)
	if bigDiffers(h.gasUsed, val) {
		h.gasUsed = val
		h.hash = nil
	}
}

func (h *Header) SetGasLimit(val *big.Int) {
	val = bigOrZero(val)
	if bigDiffers(h.gasLimit, val) {
		h.gasLimit = val
		h.hash = nil
	}
}

func (h *Header) SetDifficulty(val *big.Int) {
	val = bigOrZero(val)
	if bigDiffers(h.difficulty, val) {
		h.difficulty = val
		h.hash = nil
	}
}

// SetSeal replaces the raw seal items. Each item must be a complete RLP value.
func (h *Header) SetSeal(val [][]byte) {
	if !sealEqual(h.seal, val) {
		h.seal = copySeal(val)
		h.hash = nil
	}
}

// SetClaimedHash records the hash a relayer claims for this header without
// checking it. Hash returns the claimed value until a setter changes a field.
func (h *Header) SetClaimedHash(hash common.Hash) {
	h.hash = &hash
}

// Hash returns the keccak256 of the RLP encoding with seal, memoizing it.
func (h *Header) Hash() common.Hash {
	if h.hash != nil {
		return *h.hash
	}
	hash := h.RecomputeHash()
	h.hash = &hash
	return hash
}

// RecomputeHash hashes the current field values, ignoring and leaving alone
// any memoized value.
func (h *Header) RecomputeHash() common.Hash {
	return rlpHash(func(w io.Writer) error { return h.encode(w, true) })
}

// BareHash returns the hash of the header without its seal, the proof of work
// pre-image. It is never cached.
func (h *Header) BareHash() common.Hash {
	return rlpHash(func(w io.Writer) error { return h.encode(w, false) })
}

// Copy returns a deep copy of the header, memo included.
func (h *Header) Copy() *Header {
	cpy := *h
	cpy.extra = common.CopyBytes(h.extra)
	cpy.gasUsed = new(big.Int).Set(h.gasUsed)
	cpy.gasLimit = new(big.Int).Set(h.gasLimit)
	cpy.difficulty = new(big.Int).Set(h.difficulty)
	cpy.seal = copySeal(h.seal)
	if h.hash != nil {
		hash := *h.hash
		cpy.hash = &hash
	}
	return &cpy
}

// Equal reports whether both headers carry the same fields. Two headers with
// equal memoized hashes are considered equal without comparing fields.
func (h *Header) Equal(o *Header) bool {
	if h.hash != nil && o.hash != nil && *h.hash == *o.hash {
		return true
	}
	return h.parentHash == o.parentHash &&
		h.time == o.time &&
		h.number == o.number &&
		h.author == o.author &&
		h.txRoot == o.txRoot &&
		h.uncleHash == o.uncleHash &&
		bytes.Equal(h.extra, o.extra) &&
		h.stateRoot == o.stateRoot &&
		h.receiptsRoot == o.receiptsRoot &&
		h.bloom == o.bloom &&
		h.gasUsed.Cmp(o.gasUsed) == 0 &&
		h.gasLimit.Cmp(o.gasLimit) == 0 &&
		h.difficulty.Cmp(o.difficulty) == 0 &&
		sealEqual(h.seal, o.seal)
}

// EncodeRLP implements rlp.Encoder, writing the sealed encoding.
func (h *Header) EncodeRLP(w io.Writer) error {
	return h.encode(w, true)
}

// EncodeBareRLP writes the encoding without seal.
func (h *Header) EncodeBareRLP(w io.Writer) error {
	return h.encode(w, false)
}

func (h *Header) encode(w io.Writer, withSeal bool) error {
	buf := rlp.NewEncoderBuffer(w)
	l := buf.List()
	buf.WriteBytes(h.parentHash[:])
	buf.WriteBytes(h.uncleHash[:])
	buf.WriteBytes(h.author[:])
	buf.WriteBytes(h.stateRoot[:])
	buf.WriteBytes(h.txRoot[:])
	buf.WriteBytes(h.receiptsRoot[:])
	buf.WriteBytes(h.bloom[:])
	buf.WriteBigInt(h.difficulty)
	buf.WriteUint64(h.number)
	buf.WriteBigInt(h.gasLimit)
	buf.WriteBigInt(h.gasUsed)
	buf.WriteUint64(h.time)
	buf.WriteBytes(h.extra)
	if withSeal {
		for _, item := range h.seal {
			if _, err := buf.Write(item); err != nil {
				return err
			}
		}
	}
	buf.ListEnd(l)
	return buf.Flush()
}

// DecodeRLP implements rlp.Decoder. Every item after the thirteenth field is
// kept verbatim as a seal item.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	if _, err := s.List(); err != nil {
		return err
	}
	dec := NewHeader()
	if err := s.Decode(&dec.parentHash); err != nil {
		return err
	}
	if err := s.Decode(&dec.uncleHash); err != nil {
		return err
	}
	if err := s.Decode(&dec.author); err != nil {
		return err
	}
	if err := s.Decode(&dec.stateRoot); err != nil {
		return err
	}
	if err := s.Decode(&dec.txRoot); err != nil {
		return err
	}
	if err := s.Decode(&dec.receiptsRoot); err != nil {
		return err
	}
	if err := s.Decode(&dec.bloom); err != nil {
		return err
	}
	var err error
	if dec.difficulty, err = s.BigInt(); err != nil {
		return err
	}
	if dec.number, err = s.Uint64(); err != nil {
		return err
	}
	if dec.gasLimit, err = s.BigInt(); err != nil {
		return err
	}
	if dec.gasUsed, err = s.BigInt(); err != nil {
		return err
	}
	if dec.time, err = s.Uint64(); err != nil {
		return err
	}
	if dec.extra, err = s.Bytes(); err != nil {
		return err
	}
	for {
		raw, err := s.Raw()
		if err == rlp.EOL {
			break
		} else if err != nil {
			return err
		}
		dec.seal = append(dec.seal, raw)
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	*h = *dec
	return nil
}

// DecodeHeader decodes a sealed header and memoizes the keccak of the input.
func DecodeHeader(data []byte) (*Header, error) {
	h := new(Header)
	if err := rlp.DecodeBytes(data, h); err != nil {
		return nil, err
	}
	hash := common.BytesToHash(keccak256(data))
	h.hash = &hash
	return h, nil
}

// hasherPool holds LegacyKeccak256 hashers for rlpHash.
var hasherPool = sync.Pool{
	New: func() interface{} { return sha3.NewLegacyKeccak256() },
}

// rlpHash keccaks whatever the encoder writes.
func rlpHash(encode func(w io.Writer) error) (h common.Hash) {
	sha := hasherPool.Get().(keccakState)
	defer hasherPool.Put(sha)
	sha.Reset()
	if err := encode(sha); err != nil {
		panic("header encoding into a hasher cannot fail: " + err.Error())
	}
	sha.Read(h[:])
	return h
}

type keccakState interface {
	io.Writer
	io.Reader
	Reset()
}

func keccak256(data []byte) []byte {
	sha := hasherPool.Get().(keccakState)
	defer hasherPool.Put(sha)
	sha.Reset()
	sha.Write(data)
	out := make([]byte, 32)
	sha.Read(out)
	return out
}

// bigOrZero returns a copy of val, with nil read as zero.
func bigOrZero(val *big.Int) *big.Int {
	if val == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(val)
}

func bigDiffers(cur, val *big.Int) bool {
	if cur == nil {
		return true
	}
	return cur.Cmp(val) != 0
}

func sealEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func copySeal(seal [][]byte) [][]byte {
	if seal == nil {
		return nil
	}
	cpy := make([][]byte, len(seal))
	for i, item := range seal {
		cpy[i] = common.CopyBytes(item)
	}
	return cpy
}
