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

// Package ethash implements the ethash proof-of-work verification engine used
// to check relayed Ethereum headers.
package ethash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/metrics_config"
	"github.com/dominant-strategies/go-ethrelay/params"
	mmap "github.com/edsrzf/mmap-go"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// algorithmRevision is the data structure version used for file naming.
	algorithmRevision = 23
	// dumpMagic is a dataset dump header to sanity check a data dump.
	dumpMagic = []uint32{0xbaddcafe, 0xfee1dead}
)

var ErrInvalidDumpMagic = errors.New("invalid dump magic")

const (
	// testCacheSize and testDatasetSize are the ModeTest sizes.
	testCacheSize   = 1024
	testDatasetSize = 32 * 1024

	// sealCacheBytes bounds the memory of the verified seal cache.
	sealCacheBytes = 32 * 1024 * 1024
)

var (
	cachesGenerated   prometheus.Counter
	datasetsGenerated prometheus.Counter
	sealCacheHits     prometheus.Counter
	metricsOnce       sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		cachesGenerated = metrics_config.NewCounter("ethash_caches_generated", "Number of ethash verification caches generated or loaded")
		datasetsGenerated = metrics_config.NewCounter("ethash_datasets_generated", "Number of ethash datasets generated or loaded")
		sealCacheHits = metrics_config.NewCounter("ethash_seal_cache_hits", "Number of hashimoto results served from the seal cache")
	})
}

// isLittleEndian returns whether the local system is running in little or big
// endian byte order.
func isLittleEndian() bool {
	n := uint32(0x01020304)
	return *(*byte)(unsafe.Pointer(&n)) == 0x04
}

// memoryMap tries to memory map a file of uint32s for read only access.
func memoryMap(path string, lock bool) (*os.File, mmap.MMap, []uint32, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, nil, nil, err
	}
	mem, buffer, err := memoryMapFile(file, false)
	if err != nil {
		file.Close()
		return nil, nil, nil, err
	}
	for i, magic := range dumpMagic {
		if buffer[i] != magic {
			mem.Unmap()
			file.Close()
			return nil, nil, nil, ErrInvalidDumpMagic
		}
	}
	if lock {
		if err := mem.Lock(); err != nil {
			mem.Unmap()
			file.Close()
			return nil, nil, nil, err
		}
	}
	return file, mem, buffer[len(dumpMagic):], err
}

// memoryMapFile tries to memory map an already opened file descriptor.
func memoryMapFile(file *os.File, write bool) (mmap.MMap, []uint32, error) {
	// Try to memory map the file
	flag := mmap.RDONLY
	if write {
		flag = mmap.RDWR
	}
	mem, err := mmap.Map(file, flag, 0)
	if err != nil {
		return nil, nil, err
	}
	// The file is now memory-mapped. Create a []uint32 view of the file.
	buffer := unsafe.Slice((*uint32)(unsafe.Pointer(unsafe.SliceData(mem))), len(mem)/4)
	return mem, buffer, nil
}

// memoryMapAndGenerate tries to memory map a temporary file of uint32s for write
// access, fill it with the data from a generator and then move it into the final
// path requested.
func memoryMapAndGenerate(path string, size uint64, lock bool, generator func(buffer []uint32)) (*os.File, mmap.MMap, []uint32, error) {
	// Ensure the data folder exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, nil, err
	}
	// Create a huge temporary empty file to fill with data
	temp := path + "." + strconv.Itoa(rand.Int())

	dump, err := os.Create(temp)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = dump.Truncate(int64(len(dumpMagic))*4 + int64(size)); err != nil {
		dump.Close()
		os.Remove(temp)
		return nil, nil, nil, err
	}
	// Memory map the file for writing and fill it with the generator
	mem, buffer, err := memoryMapFile(dump, true)
	if err != nil {
		dump.Close()
		os.Remove(temp)
		return nil, nil, nil, err
	}
	copy(buffer, dumpMagic)

	data := buffer[len(dumpMagic):]
	generator(data)

	if err := mem.Unmap(); err != nil {
		return nil, nil, nil, err
	}
	if err := dump.Close(); err != nil {
		return nil, nil, nil, err
	}
	if err := os.Rename(temp, path); err != nil {
		return nil, nil, nil, err
	}
	return memoryMap(path, lock)
}

// Mode defines the type and amount of PoW verification an ethash engine makes.
type Mode uint

const (
	ModeNormal Mode = iota
	ModeTest
	ModeFake
	ModeFullFake
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeTest:
		return "test"
	case ModeFake:
		return "fake"
	case ModeFullFake:
		return "fullfake"
	default:
		return "unknown"
	}
}

// ParseMode maps a configuration string to a verification mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "normal":
		return ModeNormal, nil
	case "test":
		return ModeTest, nil
	case "fake":
		return ModeFake, nil
	case "fullfake":
		return ModeFullFake, nil
	default:
		return ModeNormal, fmt.Errorf("unknown pow mode %q", s)
	}
}

// Config are the configuration parameters of the ethash engine.
type Config struct {
	PowMode Mode
	Network params.EthNetwork
	// Rules overrides the constant set selected by Network when set.
	Rules *params.EthashParams `toml:"-"`

	CacheDir       string
	CachesInMem    int
	CachesOnDisk   int
	CachesLockMmap bool

	DatasetDir       string
	DatasetsInMem    int
	DatasetsOnDisk   int
	DatasetsLockMmap bool

	Log *log.Logger `toml:"-"`
}

// Ethash is a proof-of-work verification engine based on the ethash algorithm.
type Ethash struct {
	*Partial

	config Config

	caches   *lru // In memory caches to avoid regenerating too often
	datasets *lru // In memory datasets to avoid regenerating too often

	// seals remembers hashimoto outputs keyed by bare hash and nonce
	seals *fastcache.Cache

	// The fields below are hooks for testing
	fakeFail uint64 // Block number which fails PoW check even in fake mode

	closeOnce sync.Once // Ensures the seal cache is released only once

	logger *log.Logger
}

// New creates a full sized ethash PoW verifier for the configured network.
func New(config Config, logger *log.Logger) *Ethash {
	if logger == nil {
		logger = config.Log
	}
	if logger == nil {
		logger = log.Global
	}
	if config.CachesInMem <= 0 {
		logger.WithField("requested", config.CachesInMem).Warn("Invalid ethash caches in memory, defaulting to 1")
		config.CachesInMem = 1
	}
	if config.CacheDir != "" && config.CachesOnDisk > 0 {
		logger.WithFields(log.Fields{
			"dir":   config.CacheDir,
			"count": config.CachesOnDisk,
		}).Info("Disk storage enabled for ethash caches")
	}
	if config.DatasetDir != "" && config.DatasetsOnDisk > 0 {
		logger.WithFields(log.Fields{
			"dir":   config.DatasetDir,
			"count": config.DatasetsOnDisk,
		}).Info("Disk storage enabled for ethash DAGs")
	}
	initMetrics()
	partial := NewPartial(config.Network)
	if config.Rules != nil {
		partial = NewPartialWithParams(config.Network, config.Rules)
	}
	return &Ethash{
		Partial:  partial,
		config:   config,
		caches:   newlru("cache", config.CachesInMem, newCache, logger),
		datasets: newlru("dataset", config.DatasetsInMem, newDataset, logger),
		seals:    fastcache.New(sealCacheBytes),
		fakeFail: math.MaxUint64,
		logger:   logger,
	}
}

// NewTester creates a small sized ethash PoW scheme useful only for testing
// purposes.
func NewTester(network params.EthNetwork) *Ethash {
	return New(Config{PowMode: ModeTest, Network: network, CachesInMem: 1}, log.NewNullLogger())
}

// NewFaker creates an ethash consensus engine with a fake PoW scheme that
// accepts all blocks' seal as valid, though they still have to conform to the
// network's difficulty rules.
func NewFaker(network params.EthNetwork) *Ethash {
	return New(Config{PowMode: ModeFake, Network: network, CachesInMem: 1}, log.NewNullLogger())
}

// NewFakeFailer creates an ethash consensus engine with a fake PoW scheme that
// accepts all blocks as valid apart from the single one specified, though they
// still have to conform to the network's difficulty rules.
func NewFakeFailer(network params.EthNetwork, fail uint64) *Ethash {
	ethash := NewFaker(network)
	ethash.fakeFail = fail
	return ethash
}

// NewFullFaker creates an ethash consensus engine with a full fake scheme that
// accepts all blocks as valid, without checking any consensus rules whatsoever.
func NewFullFaker(network params.EthNetwork) *Ethash {
	return New(Config{PowMode: ModeFullFake, Network: network, CachesInMem: 1}, log.NewNullLogger())
}

// Mode returns the verification mode of the engine.
func (ethash *Ethash) Mode() Mode {
	return ethash.config.PowMode
}

// Close releases the seal cache. Caches and datasets are unmapped by their
// finalizers.
func (ethash *Ethash) Close() error {
	ethash.closeOnce.Do(func() {
		ethash.seals.Reset()
	})
	return nil
}

// lru tracks caches or datasets by their last use time, keeping at most N of them.
type lru struct {
	what string
	new  func(epoch uint64) interface{}
	mu   sync.Mutex
	// Items are kept in a LRU cache, but there is a special case:
	// We always keep an item for (highest seen epoch) + 1 as the 'future item'.
	cache      *simplelru.LRU
	future     uint64
	futureItem interface{}

	logger *log.Logger
}

// newlru create a new least-recently-used cache for either the verification caches
// or the mining datasets.
func newlru(what string, maxItems int, new func(epoch uint64) interface{}, logger *log.Logger) *lru {
	if maxItems <= 0 {
		maxItems = 1
	}
	cache, _ := simplelru.NewLRU(maxItems, func(key, value interface{}) {
		logger.WithField("epoch", key).Trace("Evicted ethash " + what)
	})
	return &lru{what: what, new: new, cache: cache, logger: logger}
}

// get retrieves or creates an item for the given epoch. The first return value is always
// non-nil. The second return value is non-nil if lru thinks that an item will be useful in
// the near future.
func (lru *lru) get(epoch uint64) (item, future interface{}) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	// Get or create the item for the requested epoch.
	item, ok := lru.cache.Get(epoch)
	if !ok {
		if lru.future > 0 && lru.future == epoch {
			item = lru.futureItem
		} else {
			lru.logger.WithField("epoch", epoch).Trace("Requiring new ethash " + lru.what)
			item = lru.new(epoch)
		}
		lru.cache.Add(epoch, item)
	}
	// Update the 'future item' if epoch is larger than previously seen.
	if epoch < maxEpoch-1 && lru.future < epoch+1 {
		lru.logger.WithField("epoch", epoch+1).Trace("Requiring new future ethash " + lru.what)
		future = lru.new(epoch + 1)
		lru.future = epoch + 1
		lru.futureItem = future
	}
	return item, future
}

// remove drops item from the lru if it is still the one held for epoch.
func (lru *lru) remove(epoch uint64, item interface{}) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if current, ok := lru.cache.Peek(epoch); ok && current == item {
		lru.cache.Remove(epoch)
	}
	if lru.future == epoch && lru.futureItem == item {
		lru.future, lru.futureItem = 0, nil
	}
}

// cache wraps an ethash cache with some metadata to allow easier concurrent use.
type cache struct {
	epoch uint64    // Epoch for which this cache is relevant
	dump  *os.File  // File descriptor of the memory mapped cache
	mmap  mmap.MMap // Memory map itself to unmap before releasing
	cache []uint32  // The actual cache data content (may be memory mapped)
	once  sync.Once // Ensures the cache is generated only once
}

// newCache creates a new ethash verification cache and returns it as a plain Go
// interface to be usable in an LRU cache.
func newCache(epoch uint64) interface{} {
	return &cache{epoch: epoch}
}

// cachePath is the on-disk location of the cache or dataset of an epoch.
func cachePath(dir, what string, seed []byte) string {
	var endian string
	if !isLittleEndian() {
		endian = ".be"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-R%d-%x%s", what, algorithmRevision, seed[:8], endian))
}

// generate ensures that the cache content is generated before use.
func (c *cache) generate(dir string, limit int, lock bool, test bool, logger *log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
			}).Error("Ethash cache generation panicked")
		}
	}()
	c.once.Do(func() {
		defer cachesGenerated.Inc()

		size := calcCacheSize(c.epoch)
		seed := SeedHash(c.epoch*epochLength + 1)
		if test {
			size = testCacheSize
		}
		// If we don't store anything on disk, generate and return.
		if dir == "" {
			c.cache = make([]uint32, size/4)
			generateCache(c.cache, c.epoch, seed, logger)
			return
		}
		// Disk storage is needed, this will get fancy
		path := cachePath(dir, "cache", seed)

		// We're about to mmap the file, ensure that the mapping is cleaned up when the
		// cache becomes unused.
		runtime.SetFinalizer(c, (*cache).finalizer)

		// Try to load the file from disk and memory map it
		var err error
		c.dump, c.mmap, c.cache, err = memoryMap(path, lock)
		if err == nil {
			logger.WithField("epoch", c.epoch).Debug("Loaded old ethash cache from disk")
			return
		}
		logger.WithField("err", err).Debug("Failed to load old ethash cache from disk")

		// No previous cache available, create a new cache file to fill
		c.dump, c.mmap, c.cache, err = memoryMapAndGenerate(path, size, lock, func(buffer []uint32) { generateCache(buffer, c.epoch, seed, logger) })
		if err != nil {
			logger.WithField("err", err).Error("Failed to generate mapped ethash cache")

			c.cache = make([]uint32, size/4)
			generateCache(c.cache, c.epoch, seed, logger)
		}
		// Iterate over all previous instances and delete old ones
		for ep := int(c.epoch) - limit; ep >= 0; ep-- {
			seed := SeedHash(uint64(ep)*epochLength + 1)
			os.Remove(cachePath(dir, "cache", seed))
		}
	})
}

// finalizer unmaps the memory and closes the file.
func (c *cache) finalizer() {
	if c.mmap != nil {
		c.mmap.Unmap()
		c.dump.Close()
		c.mmap, c.dump = nil, nil
	}
}

// dataset wraps an ethash dataset with some metadata to allow easier concurrent use.
type dataset struct {
	epoch   uint64      // Epoch for which this dataset is relevant
	dump    *os.File    // File descriptor of the memory mapped dataset
	mmap    mmap.MMap   // Memory map itself to unmap before releasing
	dataset []uint32    // The actual dataset content
	once    sync.Once   // Ensures the dataset is generated only once
	done    atomic.Bool // Atomic flag to determine generation status
}

// newDataset creates a new ethash mining dataset and returns it as a plain Go
// interface to be usable in an LRU cache.
func newDataset(epoch uint64) interface{} {
	return &dataset{epoch: epoch}
}

// generate ensures that the dataset content is generated before use.
func (d *dataset) generate(dir string, limit int, lock bool, test bool, logger *log.Logger) {
	d.once.Do(func() {
		defer func() {
			d.done.Store(true)
			datasetsGenerated.Inc()
		}()

		csize := calcCacheSize(d.epoch)
		dsize := calcDatasetSize(d.epoch)
		seed := SeedHash(d.epoch*epochLength + 1)
		if test {
			csize = testCacheSize
			dsize = testDatasetSize
		}
		// If we don't store anything on disk, generate and return
		if dir == "" {
			cache := make([]uint32, csize/4)
			generateCache(cache, d.epoch, seed, logger)

			d.dataset = make([]uint32, dsize/4)
			generateDataset(d.dataset, d.epoch, cache, logger)
			return
		}
		// Disk storage is needed, this will get fancy
		path := cachePath(dir, "full", seed)

		// We're about to mmap the file, ensure that the mapping is cleaned up when the
		// dataset becomes unused.
		runtime.SetFinalizer(d, (*dataset).finalizer)

		// Try to load the file from disk and memory map it
		var err error
		d.dump, d.mmap, d.dataset, err = memoryMap(path, lock)
		if err == nil {
			logger.WithField("epoch", d.epoch).Debug("Loaded old ethash dataset from disk")
			return
		}
		logger.WithField("err", err).Debug("Failed to load old ethash dataset from disk")

		// No previous dataset available, create a new dataset file to fill
		cache := make([]uint32, csize/4)
		generateCache(cache, d.epoch, seed, logger)

		d.dump, d.mmap, d.dataset, err = memoryMapAndGenerate(path, dsize, lock, func(buffer []uint32) { generateDataset(buffer, d.epoch, cache, logger) })
		if err != nil {
			logger.WithField("err", err).Error("Failed to generate mapped ethash dataset")

			d.dataset = make([]uint32, dsize/4)
			generateDataset(d.dataset, d.epoch, cache, logger)
		}
		// Iterate over all previous instances and delete old ones
		for ep := int(d.epoch) - limit; ep >= 0; ep-- {
			seed := SeedHash(uint64(ep)*epochLength + 1)
			os.Remove(cachePath(dir, "full", seed))
		}
	})
}

// generated returns whether this particular dataset finished generating already
// or not (it may not have been started at all).
func (d *dataset) generated() bool {
	return d.done.Load()
}

// finalizer closes any file handlers and memory maps open.
func (d *dataset) finalizer() {
	if d.mmap != nil {
		d.mmap.Unmap()
		d.dump.Close()
		d.mmap, d.dump = nil, nil
	}
}

// MakeCache generates a new ethash cache and optionally stores it to disk.
func MakeCache(block uint64, dir string, logger *log.Logger) {
	initMetrics()
	c := cache{epoch: block / epochLength}
	c.generate(dir, math.MaxInt32, false, false, logger)
}

// MakeDataset generates a new ethash dataset and optionally stores it to disk.
func MakeDataset(block uint64, dir string, logger *log.Logger) {
	initMetrics()
	d := dataset{epoch: block / epochLength}
	d.generate(dir, math.MaxInt32, false, false, logger)
}

// cache tries to retrieve a verification cache for the specified block number
// by first checking against a list of in-memory caches, then against caches
// stored on disk, and finally generating one if none can be found.
func (ethash *Ethash) cache(block uint64) *cache {
	epoch := block / epochLength
	currentI, futureI := ethash.caches.get(epoch)
	current := currentI.(*cache)

	// Wait for generation finish.
	current.generate(ethash.config.CacheDir, ethash.config.CachesOnDisk, ethash.config.CachesLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)

	// If we need a new future cache, now's a good time to regenerate it.
	if futureI != nil {
		future := futureI.(*cache)
		go future.generate(ethash.config.CacheDir, ethash.config.CachesOnDisk, ethash.config.CachesLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)
	}
	return current
}

// dataset tries to retrieve a mining dataset for the specified block number
// by first checking against a list of in-memory datasets, then against DAGs
// stored on disk, and finally generating one if none can be found.
//
// If async is specified, not only the future but the current DAG is also
// generates on a background thread.
func (ethash *Ethash) dataset(block uint64, async bool) *dataset {
	// Retrieve the requested ethash dataset
	epoch := block / epochLength
	currentI, futureI := ethash.datasets.get(epoch)
	current := currentI.(*dataset)

	// If async is specified, generate everything in a background thread
	if async && !current.generated() {
		go func() {
			current.generate(ethash.config.DatasetDir, ethash.config.DatasetsOnDisk, ethash.config.DatasetsLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)

			if futureI != nil {
				future := futureI.(*dataset)
				future.generate(ethash.config.DatasetDir, ethash.config.DatasetsOnDisk, ethash.config.DatasetsLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)
			}
		}()
	} else {
		// Either blocking generation was requested, or already done
		current.generate(ethash.config.DatasetDir, ethash.config.DatasetsOnDisk, ethash.config.DatasetsLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)

		if futureI != nil {
			future := futureI.(*dataset)
			go future.generate(ethash.config.DatasetDir, ethash.config.DatasetsOnDisk, ethash.config.DatasetsLockMmap, ethash.config.PowMode == ModeTest, ethash.logger)
		}
	}
	return current
}

// sealFor returns the light hashimoto outputs for a pre-image, serving repeated
// requests from the seal cache. A cache whose generation failed is evicted so
// the next call retries it.
func (ethash *Ethash) sealFor(number uint64, hash []byte, nonce uint64) (digest, result []byte, err error) {
	epoch := number / epochLength
	key := make([]byte, 0, len(hash)+16)
	key = append(key, hash...)
	key = binary.LittleEndian.AppendUint64(key, nonce)
	key = binary.LittleEndian.AppendUint64(key, epoch)

	if cached, ok := ethash.seals.HasGet(nil, key); ok && len(cached) == 64 {
		sealCacheHits.Inc()
		return cached[:32], cached[32:], nil
	}
	start := time.Now()

	cache := ethash.cache(number)
	if len(cache.cache) == 0 {
		ethash.caches.remove(epoch, cache)
		return nil, nil, fmt.Errorf("%w: epoch %d", consensus.ErrCacheUnavailable, epoch)
	}
	size := DatasetSize(number)
	if ethash.config.PowMode == ModeTest {
		size = testDatasetSize
	}
	digest, result = hashimotoLight(size, cache.cache, hash, nonce)

	// Caches are unmapped in a finalizer. Ensure that the cache stays alive
	// until after the call to hashimotoLight so it's not unmapped while being used.
	runtime.KeepAlive(cache)

	ethash.seals.Set(key, append(append(make([]byte, 0, 64), digest...), result...))
	ethash.logger.WithFields(log.Fields{
		"number":  number,
		"elapsed": time.Since(start),
	}).Trace("Computed light hashimoto")
	return digest, result, nil
}
