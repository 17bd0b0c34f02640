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
	"encoding/binary"

	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/ethereum/go-ethereum/common"
)

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db ethdb.KeyValueReader) *uint64 {
	return readUint64(db, databaseVersionKey)
}

// WriteDatabaseVersion stores the version number of the database
func WriteDatabaseVersion(db ethdb.KeyValueWriter, version uint64) {
	if err := db.Put(databaseVersionKey, encodeBlockNumber(version)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store the database version")
	}
}

// ReadNumberOfBlocksFinality retrieves the persisted finality window, or nil
// if the relay was never configured.
func ReadNumberOfBlocksFinality(db ethdb.KeyValueReader) *uint64 {
	return readUint64(db, finalityKey)
}

// WriteNumberOfBlocksFinality stores the finality window.
func WriteNumberOfBlocksFinality(db ethdb.KeyValueWriter, n uint64) {
	if err := db.Put(finalityKey, encodeBlockNumber(n)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store finality window")
	}
}

// ReadNumberOfBlocksSafe retrieves the persisted safety window.
func ReadNumberOfBlocksSafe(db ethdb.KeyValueReader) *uint64 {
	return readUint64(db, safeKey)
}

// WriteNumberOfBlocksSafe stores the safety window.
func WriteNumberOfBlocksSafe(db ethdb.KeyValueWriter, n uint64) {
	if err := db.Put(safeKey, encodeBlockNumber(n)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store safety window")
	}
}

// ReadCheckAuthorities retrieves the persisted authority switch.
func ReadCheckAuthorities(db ethdb.KeyValueReader) *bool {
	data, _ := db.Get(checkAuthoritiesKey)
	if len(data) != 1 {
		return nil
	}
	check := data[0] == 1
	return &check
}

// WriteCheckAuthorities stores the authority switch.
func WriteCheckAuthorities(db ethdb.KeyValueWriter, check bool) {
	value := []byte{0}
	if check {
		value[0] = 1
	}
	if err := db.Put(checkAuthoritiesKey, value); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store authority switch")
	}
}

// HasAuthority reports whether addr may relay.
func HasAuthority(db ethdb.KeyValueReader, addr common.Address) bool {
	has, err := db.Has(authorityKey(addr))
	return err == nil && has
}

// WriteAuthority adds addr to the authority set.
func WriteAuthority(db ethdb.KeyValueWriter, addr common.Address) {
	if err := db.Put(authorityKey(addr), []byte{}); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store authority")
	}
}

// DeleteAuthority removes addr from the authority set.
func DeleteAuthority(db ethdb.KeyValueWriter, addr common.Address) {
	if err := db.Delete(authorityKey(addr)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete authority")
	}
}

// ReadAuthorities lists the authority set in key order.
func ReadAuthorities(db ethdb.Iteratee) []common.Address {
	it := db.NewIterator(authorityPrefix, nil)
	defer it.Release()

	var addrs []common.Address
	for it.Next() {
		if key := it.Key(); len(key) == len(authorityPrefix)+common.AddressLength {
			addrs = append(addrs, common.BytesToAddress(key[len(authorityPrefix):]))
		}
	}
	return addrs
}

func readUint64(db ethdb.KeyValueReader, key []byte) *uint64 {
	data, _ := db.Get(key)
	if len(data) != 8 {
		return nil
	}
	n := binary.BigEndian.Uint64(data)
	return &n
}
