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
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/dominant-strategies/go-ethrelay/ethdb/leveldb"
	"github.com/dominant-strategies/go-ethrelay/ethdb/pebble"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Supported database engines.
const (
	EngineLevelDB = "leveldb"
	EnginePebble  = "pebble"
)

// DatabaseVersion is the schema version written on first open.
const DatabaseVersion = 1

// ErrUnknownEngine is returned by Open for an engine it cannot build.
var ErrUnknownEngine = errors.New("unknown database engine")

// Open creates a persistent key-value database in dir using the named
// engine. An empty engine selects leveldb.
func Open(engine string, dir string, cache int, handles int, readonly bool, logger *log.Logger) (ethdb.Database, error) {
	var (
		db  ethdb.Database
		err error
	)
	switch engine {
	case "", EngineLevelDB:
		db, err = leveldb.New(dir, cache, handles, readonly, logger)
	case EnginePebble:
		db, err = pebble.New(dir, cache, handles, readonly, logger)
	default:
		return nil, errors.Wrap(ErrUnknownEngine, engine)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database at %s", engine, filepath.Clean(dir))
	}
	if !readonly {
		if version := ReadDatabaseVersion(db); version == nil {
			WriteDatabaseVersion(db, DatabaseVersion)
		} else if *version != DatabaseVersion {
			db.Close()
			return nil, fmt.Errorf("database version mismatch: have %d, want %d", *version, DatabaseVersion)
		}
	}
	return db, nil
}

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase(logger *log.Logger) ethdb.Database {
	return leveldb.NewMemory(logger)
}

// stat stores sizes and count for a parameter
type stat struct {
	size  common.StorageSize
	count int
}

// Add size to the stat and increase the counter by 1
func (s *stat) Add(size common.StorageSize) {
	s.size += size
	s.count++
}

func (s *stat) Size() string {
	return s.size.String()
}

func (s *stat) Count() string {
	return fmt.Sprintf("%d", s.count)
}

// InspectDatabase traverses the entire database and writes a table of the
// size of every relay map to w.
func InspectDatabase(db ethdb.Database, w io.Writer, logger *log.Logger) error {
	it := db.NewIterator(nil, nil)
	defer it.Release()

	var (
		count  int64
		start  = time.Now()
		logged = time.Now()

		headers     stat
		headerInfos stat
		canonical   stat
		authorities stat
		metadata    stat
		unaccounted stat

		total common.StorageSize
	)
	for it.Next() {
		var (
			key  = it.Key()
			size = common.StorageSize(len(key) + len(it.Value()))
		)
		total += size
		switch {
		case bytes.HasPrefix(key, headerInfoPrefix) && len(key) == len(headerInfoPrefix)+common.HashLength:
			headerInfos.Add(size)
		case bytes.HasPrefix(key, headerPrefix) && len(key) == len(headerPrefix)+common.HashLength:
			headers.Add(size)
		case bytes.HasPrefix(key, canonicalPrefix) && len(key) == len(canonicalPrefix)+8:
			canonical.Add(size)
		case bytes.HasPrefix(key, authorityPrefix) && len(key) == len(authorityPrefix)+common.AddressLength:
			authorities.Add(size)
		default:
			var accounted bool
			for _, meta := range [][]byte{
				databaseVersionKey, genesisHeaderKey, bestHeaderKey,
				finalityKey, safeKey, checkAuthoritiesKey,
			} {
				if bytes.Equal(key, meta) {
					metadata.Add(size)
					accounted = true
					break
				}
			}
			if !accounted {
				unaccounted.Add(size)
			}
		}
		count++
		if count%1000 == 0 && time.Since(logged) > 8*time.Second {
			logger.WithFields(log.Fields{
				"count":   count,
				"elapsed": common.PrettyDuration(time.Since(start)),
			}).Info("Inspecting database")
			logged = time.Now()
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	stats := [][]string{
		{"Key-Value store", "Headers", headers.Size(), headers.Count()},
		{"Key-Value store", "Header infos", headerInfos.Size(), headerInfos.Count()},
		{"Key-Value store", "Canonical hashes", canonical.Size(), canonical.Count()},
		{"Key-Value store", "Authorities", authorities.Size(), authorities.Count()},
		{"Key-Value store", "Singleton metadata", metadata.Size(), metadata.Count()},
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Database", "Category", "Size", "Items"})
	table.SetFooter([]string{"", "Total", total.String(), " "})
	table.AppendBulk(stats)
	table.Render()

	if unaccounted.size > 0 {
		logger.WithFields(log.Fields{
			"size":  unaccounted.size,
			"count": unaccounted.count,
		}).Error("Database contains unaccounted data")
	}
	return nil
}
