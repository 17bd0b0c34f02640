// Package relay keeps a verified view of an Ethereum proof-of-work chain. It
// accepts headers from relayers, tracks the heaviest chain by total
// difficulty and checks receipt inclusion proofs against canonical headers.
package relay

import (
	"math/big"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Config holds the relay settings applied when a database is first opened.
// Afterwards the persisted values win and change only through root calls.
type Config struct {
	NumberOfBlocksFinality uint64           `toml:"finality"`
	NumberOfBlocksSafe     uint64           `toml:"safe"`
	CheckAuthorities       bool             `toml:"check-authorities"`
	Authorities            []common.Address `toml:"authorities"`
}

// DefaultConfig contains the default relay settings.
var DefaultConfig = Config{
	NumberOfBlocksFinality: params.DefaultNumberOfBlocksFinality,
	NumberOfBlocksSafe:     params.DefaultNumberOfBlocksSafe,
	CheckAuthorities:       true,
}

// Relay is the header relay state machine. All state lives in db; calls are
// serialized so each one either commits all of its writes or none.
type Relay struct {
	db     ethdb.Database
	cache  *rawdb.ChainCache
	engine consensus.Engine

	mu               sync.RWMutex
	authorities      mapset.Set
	checkAuthorities bool
	finality         uint64
	safe             uint64

	genesisFeed event.Feed
	headerFeed  event.Feed
	proofFeed   event.Feed
	adminFeed   event.Feed
	scope       event.SubscriptionScope

	logger *log.Logger
}

// New returns a relay over db verifying headers with engine.
func New(db ethdb.Database, engine consensus.Engine, config Config, logger *log.Logger) *Relay {
	initMetrics()
	r := &Relay{
		db:          db,
		cache:       rawdb.NewChainCache(db),
		engine:      engine,
		authorities: mapset.NewSet(),
		logger:      logger,
	}
	if check := rawdb.ReadCheckAuthorities(db); check == nil {
		batch := db.NewBatch()
		rawdb.WriteCheckAuthorities(batch, config.CheckAuthorities)
		rawdb.WriteNumberOfBlocksFinality(batch, config.NumberOfBlocksFinality)
		rawdb.WriteNumberOfBlocksSafe(batch, config.NumberOfBlocksSafe)
		for _, addr := range config.Authorities {
			rawdb.WriteAuthority(batch, addr)
		}
		if err := batch.Write(); err != nil {
			logger.WithField("err", err).Fatal("Failed to write relay settings")
		}
		logger.WithFields(log.Fields{
			"finality":    config.NumberOfBlocksFinality,
			"safe":        config.NumberOfBlocksSafe,
			"check":       config.CheckAuthorities,
			"authorities": len(config.Authorities),
		}).Info("Initialised relay settings")
	}
	r.checkAuthorities = *rawdb.ReadCheckAuthorities(db)
	if n := rawdb.ReadNumberOfBlocksFinality(db); n != nil {
		r.finality = *n
	}
	if n := rawdb.ReadNumberOfBlocksSafe(db); n != nil {
		r.safe = *n
	}
	for _, addr := range rawdb.ReadAuthorities(db) {
		r.authorities.Add(addr)
	}
	if best := rawdb.ReadBestHeaderHash(db); best != (common.Hash{}) {
		if info := r.cache.HeaderInfo(best); info != nil {
			bestNumber.Set(float64(info.Number))
		}
	}
	return r
}

// Engine returns the consensus engine headers are verified with.
func (r *Relay) Engine() consensus.Engine {
	return r.engine
}

// Close unsubscribes every event subscriber. The database and the engine are
// owned by the caller.
func (r *Relay) Close() {
	r.scope.Close()
}

// GenesisHeaderHash returns the hash of the header the relay was started from.
func (r *Relay) GenesisHeaderHash() common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rawdb.ReadGenesisHeaderHash(r.db)
}

// BestHeaderHash returns the hash of the header with the highest total
// difficulty.
func (r *Relay) BestHeaderHash() common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rawdb.ReadBestHeaderHash(r.db)
}

// HeaderOf returns the stored header with the given hash, or nil.
func (r *Relay) HeaderOf(hash common.Hash) *types.Header {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Header(hash)
}

// HeaderInfoOf returns the bookkeeping of the stored header, or nil.
func (r *Relay) HeaderInfoOf(hash common.Hash) *types.HeaderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.HeaderInfo(hash)
}

// CanonicalHeaderHashOf returns the canonical hash at number, or the zero hash.
func (r *Relay) CanonicalHeaderHashOf(number uint64) common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rawdb.ReadCanonicalHash(r.db, number)
}

// CanonicalHeaderHashes returns the canonical mappings in [from, to).
func (r *Relay) CanonicalHeaderHashes(from, to uint64, limit int) ([]uint64, []common.Hash) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rawdb.ReadAllCanonicalHashes(r.db, from, to, limit)
}

// BestTotalDifficulty returns the total difficulty of the best header.
func (r *Relay) BestTotalDifficulty() *big.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := r.cache.HeaderInfo(rawdb.ReadBestHeaderHash(r.db))
	if info == nil {
		return nil
	}
	return info.TotalDifficulty
}

// NumberOfBlocksFinality is the depth below the best header past which new
// headers are rejected.
func (r *Relay) NumberOfBlocksFinality() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finality
}

// NumberOfBlocksSafe is the number of blocks required on top of a header
// before its receipts are accepted.
func (r *Relay) NumberOfBlocksSafe() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.safe
}

// SubscribeSetGenesisHeaderEvent registers a subscription of SetGenesisHeaderEvent.
func (r *Relay) SubscribeSetGenesisHeaderEvent(ch chan<- SetGenesisHeaderEvent) event.Subscription {
	return r.scope.Track(r.genesisFeed.Subscribe(ch))
}

// SubscribeRelayHeaderEvent registers a subscription of RelayHeaderEvent.
func (r *Relay) SubscribeRelayHeaderEvent(ch chan<- RelayHeaderEvent) event.Subscription {
	return r.scope.Track(r.headerFeed.Subscribe(ch))
}

// SubscribeVerifyProofEvent registers a subscription of VerifyProofEvent.
func (r *Relay) SubscribeVerifyProofEvent(ch chan<- VerifyProofEvent) event.Subscription {
	return r.scope.Track(r.proofFeed.Subscribe(ch))
}

// SubscribeAdminEvent registers a subscription of AdminEvent.
func (r *Relay) SubscribeAdminEvent(ch chan<- AdminEvent) event.Subscription {
	return r.scope.Track(r.adminFeed.Subscribe(ch))
}
