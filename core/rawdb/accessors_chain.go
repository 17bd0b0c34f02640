// Copyright 2018 The go-ethereum Authors
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

package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db ethdb.KeyValueReader, number uint64) common.Hash {
	data, _ := db.Get(canonicalKey(number))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db ethdb.KeyValueWriter, hash common.Hash, number uint64) {
	if err := db.Put(canonicalKey(number), hash.Bytes()); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store number to hash mapping")
	}
}

// DeleteCanonicalHash removes the number to hash canonical mapping.
func DeleteCanonicalHash(db ethdb.KeyValueWriter, number uint64) {
	if err := db.Delete(canonicalKey(number)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete number to hash mapping")
	}
}

// ReadAllCanonicalHashes retrieves all canonical number and hash mappings at the
// certain chain range. If the accumulated entries reaches the given threshold,
// abort the iteration and return the semi-finish result.
func ReadAllCanonicalHashes(db ethdb.Iteratee, from uint64, to uint64, limit int) ([]uint64, []common.Hash) {
	// Short circuit if the limit is 0.
	if limit == 0 {
		return nil, nil
	}
	var (
		numbers []uint64
		hashes  []common.Hash
	)
	end := canonicalKey(to)
	it := db.NewIterator(canonicalPrefix, encodeBlockNumber(from))
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if bytes.Compare(key, end) >= 0 {
			break
		}
		if len(key) != len(canonicalPrefix)+8 {
			continue
		}
		numbers = append(numbers, binary.BigEndian.Uint64(key[len(canonicalPrefix):]))
		hashes = append(hashes, common.BytesToHash(it.Value()))
		// If the accumulated entries reaches the limit threshold, return.
		if len(numbers) >= limit {
			break
		}
	}
	return numbers, hashes
}

// ReadCanonicalNumbersAbove returns every height above number that still has a
// canonical mapping.
func ReadCanonicalNumbersAbove(db ethdb.Iteratee, number uint64) []uint64 {
	if number == ^uint64(0) {
		return nil
	}
	it := db.NewIterator(canonicalPrefix, encodeBlockNumber(number+1))
	defer it.Release()

	var numbers []uint64
	for it.Next() {
		if key := it.Key(); len(key) == len(canonicalPrefix)+8 {
			numbers = append(numbers, binary.BigEndian.Uint64(key[len(canonicalPrefix):]))
		}
	}
	return numbers
}

// ReadGenesisHeaderHash retrieves the hash of the relayed genesis header.
func ReadGenesisHeaderHash(db ethdb.KeyValueReader) common.Hash {
	data, _ := db.Get(genesisHeaderKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteGenesisHeaderHash stores the hash of the relayed genesis header.
func WriteGenesisHeaderHash(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(genesisHeaderKey, hash.Bytes()); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store genesis header's hash")
	}
}

// ReadBestHeaderHash retrieves the hash of the current best header.
func ReadBestHeaderHash(db ethdb.KeyValueReader) common.Hash {
	data, _ := db.Get(bestHeaderKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteBestHeaderHash stores the hash of the current best header.
func WriteBestHeaderHash(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(bestHeaderKey, hash.Bytes()); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store best header's hash")
	}
}

// ReadHeaderRLP retrieves a header in its raw RLP database encoding.
func ReadHeaderRLP(db ethdb.KeyValueReader, hash common.Hash) rlp.RawValue {
	data, _ := db.Get(headerKey(hash))
	return data
}

// HasHeader verifies the existence of a header corresponding to the hash.
func HasHeader(db ethdb.KeyValueReader, hash common.Hash) bool {
	has, err := db.Has(headerKey(hash))
	return err == nil && has
}

// ReadHeader retrieves the header corresponding to the hash.
func ReadHeader(db ethdb.KeyValueReader, hash common.Hash) *types.Header {
	data := ReadHeaderRLP(db, hash)
	if len(data) == 0 {
		return nil
	}
	header, err := types.DecodeHeader(data)
	if err != nil {
		return nil
	}
	return header
}

// WriteHeader stores a header into the database keyed by its hash.
func WriteHeader(db ethdb.KeyValueWriter, header *types.Header) {
	data, err := rlp.EncodeToBytes(header)
	if err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to RLP encode header")
	}
	if err := db.Put(headerKey(header.Hash()), data); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store header")
	}
}

// DeleteHeader removes the header associated with a hash.
func DeleteHeader(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Delete(headerKey(hash)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete header")
	}
}

// HasHeaderInfo reports whether bookkeeping exists for the header hash.
func HasHeaderInfo(db ethdb.KeyValueReader, hash common.Hash) bool {
	has, err := db.Has(headerInfoKey(hash))
	return err == nil && has
}

// ReadHeaderInfo retrieves the total difficulty, parent and number recorded for
// a header.
func ReadHeaderInfo(db ethdb.KeyValueReader, hash common.Hash) *types.HeaderInfo {
	data, _ := db.Get(headerInfoKey(hash))
	if len(data) == 0 {
		return nil
	}
	info := new(types.HeaderInfo)
	if err := rlp.DecodeBytes(data, info); err != nil {
		return nil
	}
	return info
}

// WriteHeaderInfo stores the bookkeeping of a header.
func WriteHeaderInfo(db ethdb.KeyValueWriter, hash common.Hash, info *types.HeaderInfo) {
	data, err := rlp.EncodeToBytes(info)
	if err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to RLP encode header info")
	}
	if err := db.Put(headerInfoKey(hash), data); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store header info")
	}
}

// DeleteHeaderInfo removes the bookkeeping of a header.
func DeleteHeaderInfo(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Delete(headerInfoKey(hash)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete header info")
	}
}
