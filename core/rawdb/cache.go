package rawdb

import (
	"math/big"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	headerCacheLimit     = 512
	headerInfoCacheLimit = 1024
)

// ChainCache fronts the header and header info maps with LRU caches. Entries
// are only added once the batch that wrote them has been committed, so a
// cached value is always one the database holds.
type ChainCache struct {
	db          ethdb.Database
	headerCache *lru.Cache[common.Hash, *types.Header]
	infoCache   *lru.Cache[common.Hash, types.HeaderInfo]
}

// NewChainCache wraps db with read caches.
func NewChainCache(db ethdb.Database) *ChainCache {
	headerCache, _ := lru.New[common.Hash, *types.Header](headerCacheLimit)
	infoCache, _ := lru.New[common.Hash, types.HeaderInfo](headerInfoCacheLimit)
	return &ChainCache{
		db:          db,
		headerCache: headerCache,
		infoCache:   infoCache,
	}
}

// Header returns the stored header for hash, or nil. The result is a copy the
// caller may mutate.
func (c *ChainCache) Header(hash common.Hash) *types.Header {
	if header, ok := c.headerCache.Get(hash); ok {
		return header.Copy()
	}
	header := ReadHeader(c.db, hash)
	if header == nil {
		return nil
	}
	c.headerCache.Add(hash, header.Copy())
	return header
}

// HeaderInfo returns the stored header info for hash, or nil.
func (c *ChainCache) HeaderInfo(hash common.Hash) *types.HeaderInfo {
	if info, ok := c.infoCache.Get(hash); ok {
		return copyInfo(&info)
	}
	info := ReadHeaderInfo(c.db, hash)
	if info == nil {
		return nil
	}
	c.infoCache.Add(hash, *copyInfo(info))
	return info
}

// AddHeader caches a header that has been committed.
func (c *ChainCache) AddHeader(header *types.Header) {
	c.headerCache.Add(header.Hash(), header.Copy())
}

// AddHeaderInfo caches header info that has been committed.
func (c *ChainCache) AddHeaderInfo(hash common.Hash, info *types.HeaderInfo) {
	c.infoCache.Add(hash, *copyInfo(info))
}

// Purge drops every cached entry.
func (c *ChainCache) Purge() {
	c.headerCache.Purge()
	c.infoCache.Purge()
}

func copyInfo(info *types.HeaderInfo) *types.HeaderInfo {
	cpy := *info
	if info.TotalDifficulty != nil {
		cpy.TotalDifficulty = new(big.Int).Set(info.TotalDifficulty)
	}
	return &cpy
}
