package relay

import (
	"fmt"
	"math/big"

	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// InitGenesisHeader makes header the genesis, best and canonical header with
// the given total difficulty. Canonical mappings above its number are dropped.
func (r *Relay) InitGenesisHeader(header *types.Header, difficulty *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initGenesisHeader(header, difficulty)
}

// ResetGenesisHeader is the authority gated InitGenesisHeader.
func (r *Relay) ResetGenesisHeader(origin Origin, header *types.Header, difficulty *big.Int) error {
	r.mu.Lock()
	if err := r.ensureAuthority(origin); err != nil {
		r.mu.Unlock()
		return err
	}
	err := r.initGenesisHeader(header, difficulty)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.genesisFeed.Send(SetGenesisHeaderEvent{Origin: origin, Header: header.Copy(), Difficulty: new(big.Int).Set(difficulty)})
	return nil
}

func (r *Relay) initGenesisHeader(header *types.Header, difficulty *big.Int) error {
	hash := header.Hash()
	if hash != header.RecomputeHash() {
		return ErrHeaderHashMis
	}
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	number := header.Number()
	info := &types.HeaderInfo{
		TotalDifficulty: new(big.Int).Set(difficulty),
		ParentHash:      header.ParentHash(),
		Number:          number,
	}
	batch := r.db.NewBatch()
	rawdb.WriteHeader(batch, header)
	rawdb.WriteHeaderInfo(batch, hash, info)
	rawdb.WriteGenesisHeaderHash(batch, hash)
	rawdb.WriteBestHeaderHash(batch, hash)
	rawdb.WriteCanonicalHash(batch, hash, number)
	for _, above := range rawdb.ReadCanonicalNumbersAbove(r.db, number) {
		rawdb.DeleteCanonicalHash(batch, above)
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit genesis header")
	}
	r.cache.AddHeader(header)
	r.cache.AddHeaderInfo(hash, info)
	bestNumber.Set(float64(number))

	r.logger.WithFields(log.Fields{
		"number":     number,
		"hash":       hash,
		"difficulty": difficulty,
	}).Info("Set genesis header")
	return nil
}

// RelayHeader verifies header against its stored parent and stores it,
// moving the best header and the canonical index when it is heavier.
func (r *Relay) RelayHeader(origin Origin, header *types.Header) error {
	r.mu.Lock()
	if err := r.ensureAuthority(origin); err != nil {
		r.mu.Unlock()
		return err
	}
	best, reorged, err := r.relayHeader(header)
	r.mu.Unlock()
	if err != nil {
		headersRejected.Inc()
		r.logger.WithFields(log.Fields{
			"origin": origin,
			"number": header.Number(),
			"hash":   header.Hash(),
			"err":    err,
		}).Debug("Rejected header")
		return err
	}
	headersRelayed.Inc()
	r.logger.WithFields(log.Fields{
		"origin":  origin,
		"number":  header.Number(),
		"hash":    header.Hash(),
		"best":    best,
		"reorged": reorged,
	}).Info("Relayed header")
	r.headerFeed.Send(RelayHeaderEvent{Origin: origin, Header: header.Copy(), Best: best, Reorged: reorged})
	return nil
}

func (r *Relay) relayHeader(header *types.Header) (bool, int, error) {
	if r.cache.HeaderInfo(header.Hash()) != nil {
		return false, 0, ErrHeaderAE
	}
	timer := prometheus.NewTimer(verifyTimer)
	err := r.verifyHeader(header)
	timer.ObserveDuration()
	if err != nil {
		return false, 0, err
	}
	return r.maybeStoreHeader(header)
}

func (r *Relay) verifyHeader(header *types.Header) error {
	if header.Hash() != header.RecomputeHash() {
		return ErrHeaderHashMis
	}
	genesis := r.cache.HeaderInfo(rawdb.ReadGenesisHeaderHash(r.db))
	if genesis == nil {
		return ErrGenesisNE
	}
	number := header.Number()
	if number < genesis.Number {
		return fmt.Errorf("%w: genesis %d, have %d", ErrHeaderTE, genesis.Number, number)
	}
	parent := r.cache.Header(header.ParentHash())
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrHeaderNE, header.ParentHash().Hex())
	}
	if parent.Number()+1 != number {
		return fmt.Errorf("%w: parent %d, have %d", ErrBlockNumberMis, parent.Number(), number)
	}
	if err := r.engine.VerifyBlockBasic(header); err != nil {
		return fmt.Errorf("%w: %w", ErrBlockBasicVF, err)
	}
	if expected := r.engine.CalcDifficulty(header, parent); expected.Cmp(header.Difficulty()) != 0 {
		return fmt.Errorf("%w: want %v, have %v", ErrDifficultyVF, expected, header.Difficulty())
	}
	if r.engine.RequiresMixHashCheck() {
		if err := r.engine.VerifySeal(header); err != nil {
			return fmt.Errorf("%w: %w", ErrMixhashMis, err)
		}
	}
	return nil
}

// maybeStoreHeader stores a verified header and adopts it as the best header
// if its total difficulty is higher, or equal with an even difficulty. The
// returned count is the number of canonical heights that changed hash.
func (r *Relay) maybeStoreHeader(header *types.Header) (bool, int, error) {
	var (
		hash   = header.Hash()
		number = header.Number()
	)
	bestHash := rawdb.ReadBestHeaderHash(r.db)
	best := r.cache.HeaderInfo(bestHash)
	if best == nil {
		return false, 0, fmt.Errorf("%w: best %s", ErrHeaderInfoNE, bestHash.Hex())
	}
	if best.Number > r.finality && best.Number-r.finality > number {
		return false, 0, fmt.Errorf("%w: best %d, have %d", ErrHeaderTO, best.Number, number)
	}
	parent := r.cache.HeaderInfo(header.ParentHash())
	if parent == nil {
		return false, 0, fmt.Errorf("%w: parent %s", ErrHeaderInfoNE, header.ParentHash().Hex())
	}
	difficulty := header.Difficulty()
	info := &types.HeaderInfo{
		TotalDifficulty: new(big.Int).Add(parent.TotalDifficulty, difficulty),
		ParentHash:      header.ParentHash(),
		Number:          number,
	}
	batch := r.db.NewBatch()
	rawdb.WriteHeader(batch, header)
	rawdb.WriteHeaderInfo(batch, hash, info)

	var (
		adopt   bool
		reorged int
	)
	switch info.TotalDifficulty.Cmp(best.TotalDifficulty) {
	case 1:
		adopt = true
	case 0:
		adopt = difficulty.Bit(0) == 0
	}
	if adopt {
		rawdb.WriteBestHeaderHash(batch, hash)
		if prev := rawdb.ReadCanonicalHash(r.db, number); prev != hash {
			if prev != (common.Hash{}) {
				reorged++
			}
			rawdb.WriteCanonicalHash(batch, hash, number)
		}
		for _, above := range rawdb.ReadCanonicalNumbersAbove(r.db, number) {
			rawdb.DeleteCanonicalHash(batch, above)
			reorged++
		}
		// Re-point ancestors until the stored canonical chain agrees.
		ancestorHash, ancestor := info.ParentHash, parent
		for ancestor != nil {
			if rawdb.ReadCanonicalHash(r.db, ancestor.Number) == ancestorHash {
				break
			}
			rawdb.WriteCanonicalHash(batch, ancestorHash, ancestor.Number)
			reorged++
			if ancestor.Number == 0 {
				break
			}
			ancestorHash = ancestor.ParentHash
			ancestor = r.cache.HeaderInfo(ancestorHash)
		}
	}
	if err := batch.Write(); err != nil {
		return false, 0, errors.Wrap(err, "failed to commit header")
	}
	r.cache.AddHeader(header)
	r.cache.AddHeaderInfo(hash, info)

	if adopt {
		bestNumber.Set(float64(number))
		if reorged > 0 {
			reorgs.Inc()
			r.logger.WithFields(log.Fields{
				"number":  number,
				"hash":    hash,
				"reorged": reorged,
			}).Info("Canonical chain reorganised")
		}
	}
	return adopt, reorged, nil
}
