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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// The fields below define the low level database schema prefixing.
var (
	// databaseVersionKey tracks the current database version.
	databaseVersionKey = []byte("DatabaseVersion")

	// genesisHeaderKey tracks the hash of the relayed genesis header.
	genesisHeaderKey = []byte("GenesisHeader")

	// bestHeaderKey tracks the hash of the heaviest known header.
	bestHeaderKey = []byte("BestHeader")

	// finalityKey, safeKey and checkAuthoritiesKey persist the relay windows
	// and the authority switch.
	finalityKey         = []byte("NumberOfBlocksFinality")
	safeKey             = []byte("NumberOfBlocksSafe")
	checkAuthoritiesKey = []byte("CheckAuthorities")

	// Data item prefixes (use single byte to avoid mixing data types).
	headerPrefix     = []byte("h")  // headerPrefix + hash -> header
	headerInfoPrefix = []byte("hi") // headerInfoPrefix + hash -> header info
	canonicalPrefix  = []byte("n")  // canonicalPrefix + num (uint64 big endian) -> hash
	authorityPrefix  = []byte("a")  // authorityPrefix + address -> []byte{}
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// headerKey = headerPrefix + hash
func headerKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerPrefix...), hash.Bytes()...)
}

// headerInfoKey = headerInfoPrefix + hash
func headerInfoKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerInfoPrefix...), hash.Bytes()...)
}

// canonicalKey = canonicalPrefix + num (uint64 big endian)
func canonicalKey(number uint64) []byte {
	return append(append([]byte{}, canonicalPrefix...), encodeBlockNumber(number)...)
}

// authorityKey = authorityPrefix + address
func authorityKey(addr common.Address) []byte {
	return append(append([]byte{}, authorityPrefix...), addr.Bytes()...)
}
