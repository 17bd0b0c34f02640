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

package ethash

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

var (
	// two256 is a big integer representing 2^256
	two256 = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), big.NewInt(0))

	big1 = big.NewInt(1)
)

// Partial holds the network dependent difficulty rules and the cheap seal
// checks that need no ethash cache.
type Partial struct {
	network params.EthNetwork
	params  *params.EthashParams
}

// NewPartial returns the difficulty rules of a network. Unknown ids use the
// production rules.
func NewPartial(network params.EthNetwork) *Partial {
	return &Partial{network: network, params: network.EthashParams()}
}

// NewPartialWithParams returns the rules of an explicit constant set, for
// chains such as Expanse that no network id selects.
func NewPartialWithParams(network params.EthNetwork, p *params.EthashParams) *Partial {
	return &Partial{network: network, params: p}
}

// Network returns the network the rules belong to.
func (p *Partial) Network() params.EthNetwork {
	return p.network
}

// Params exposes the constant set in use.
func (p *Partial) Params() *params.EthashParams {
	return p.params
}

// SetDifficultyBombDelays inserts or overrides the bomb delay activated at block.
func (p *Partial) SetDifficultyBombDelays(block, delay uint64) {
	p.params.SetDifficultyBombDelays(block, delay)
}

// RequiresMixHashCheck reports whether relayed headers need the full mix digest
// check on top of the quick boundary check.
func (p *Partial) RequiresMixHashCheck() bool {
	return p.params.RequiresMixHashCheck
}

// VerifyBlockBasic checks the seal shape, the minimum difficulty and that the
// sealed mix hash and nonce imply at least the claimed difficulty.
func (p *Partial) VerifyBlockBasic(header *types.Header) error {
	seal, err := types.ParseSeal(header.Seal())
	if err != nil {
		return err
	}
	return p.verifyBasic(header, seal, true)
}

func (p *Partial) verifyBasic(header *types.Header, seal *types.EthashSeal, quick bool) error {
	difficulty := header.Difficulty()
	if difficulty.Cmp(p.params.MinimumDifficulty) < 0 {
		return fmt.Errorf("%w: min %v, have %v", consensus.ErrDifficultyOutOfBounds, p.params.MinimumDifficulty, difficulty)
	}
	if !quick {
		return nil
	}
	boundary := QuickGetDifficulty(header.BareHash(), seal.Nonce.Uint64(), seal.MixHash)
	implied := BoundaryToDifficulty(boundary).ToBig()
	if implied.Cmp(difficulty) < 0 {
		return fmt.Errorf("%w: min %v, have %v", consensus.ErrInvalidProofOfWork, difficulty, implied)
	}
	return nil
}

// CalcDifficulty is the difficulty adjustment algorithm. It returns the
// difficulty that header should have given its parent. Calculating the
// difficulty of the genesis block is a programming error and panics.
func (p *Partial) CalcDifficulty(header, parent *types.Header) *big.Int {
	number := header.Number()
	if number == 0 {
		panic("can't calculate genesis block difficulty")
	}
	var (
		cfg        = p.params
		minimum    = cfg.MinimumDifficulty
		parentDiff = parent.Difficulty()
		time       = header.Time()
		parentTime = parent.Time()
	)
	boundDivisor := cfg.DifficultyBoundDivisor
	if number >= cfg.DifficultyHardforkTransition {
		boundDivisor = cfg.DifficultyHardforkBoundDivisor
	}
	durationLimit := cfg.DurationLimit
	if number >= cfg.Expip2Transition {
		durationLimit = cfg.Expip2DurationLimit
	}
	// adjust = parent_diff / bound_divisor
	adjust := new(big.Int).Div(parentDiff, boundDivisor)

	target := new(big.Int)
	if number < cfg.HomesteadTransition {
		if time >= parentTime+durationLimit {
			target.Sub(parentDiff, adjust)
		} else {
			target.Add(parentDiff, adjust)
		}
	} else {
		// diff = parent_diff + parent_diff / 2048 * max(threshold - (time - parent_time) // divisor, -99)
		incrementDivisor, threshold := cfg.DifficultyIncrementDivisor, uint64(1)
		if number >= cfg.Eip100bTransition {
			incrementDivisor = cfg.MetropolisDifficultyIncrementDivisor
			if parent.UncleHash() != types.EmptyUncleHash {
				threshold = 2
			}
		}
		var diffInc uint64
		if time > parentTime {
			diffInc = (time - parentTime) / incrementDivisor
		}
		if diffInc <= threshold {
			target.Mul(adjust, new(big.Int).SetUint64(threshold-diffInc))
			target.Add(parentDiff, target)
		} else {
			multiplier := diffInc - threshold
			if multiplier > 99 {
				multiplier = 99
			}
			target.Mul(adjust, new(big.Int).SetUint64(multiplier))
			target.Sub(parentDiff, target)
			if target.Sign() < 0 {
				target.SetUint64(0)
			}
		}
	}
	clamp := func() {
		if target.Cmp(minimum) < 0 {
			target.Set(minimum)
		}
	}
	clamp()

	if number >= cfg.BombDefuseTransition {
		return target
	}
	switch {
	case number < cfg.Ecip1010PauseTransition:
		fakeNumber := number
		for block, delay := range cfg.DifficultyBombDelays {
			if number < block {
				continue
			}
			if fakeNumber < delay {
				fakeNumber = 0
			} else {
				fakeNumber -= delay
			}
		}
		if period := fakeNumber / params.ExpDiffPeriod; period > 1 {
			target.Add(target, new(big.Int).Lsh(big1, uint(period-2)))
		}
	case number < cfg.Ecip1010ContinueTransition:
		fixed := cfg.Ecip1010PauseTransition/params.ExpDiffPeriod - 2
		target.Add(target, new(big.Int).Lsh(big1, uint(fixed)))
	default:
		period := (parent.Number() + 1) / params.ExpDiffPeriod
		delay := (cfg.Ecip1010ContinueTransition - cfg.Ecip1010PauseTransition) / params.ExpDiffPeriod
		if period >= delay+2 {
			target.Add(target, new(big.Int).Lsh(big1, uint(period-delay-2)))
		}
	}
	clamp()
	return target
}

// QuickGetDifficulty recomputes the final hashimoto hash from the sealed mix
// digest without touching any cache: keccak256(keccak512(hash ++ nonce) ++ mix).
func QuickGetDifficulty(bareHash common.Hash, nonce uint64, mix common.Hash) common.Hash {
	seed := make([]byte, 40)
	copy(seed, bareHash[:])
	binary.LittleEndian.PutUint64(seed[32:], nonce)

	keccak512 := sha3.NewLegacyKeccak512()
	keccak512.Write(seed)
	buf := keccak512.Sum(make([]byte, 0, 64+32))
	buf = append(buf, mix[:]...)

	keccak256 := sha3.NewLegacyKeccak256()
	keccak256.Write(buf)
	return common.BytesToHash(keccak256.Sum(nil))
}

// CrossBoundary converts between a difficulty and its boundary: 2^256 / x,
// saturating to the maximum for x <= 1.
func CrossBoundary(val *uint256.Int) *uint256.Int {
	if val.LtUint64(2) {
		return new(uint256.Int).SetAllOne()
	}
	one := uint256.NewInt(1)
	out := new(uint256.Int).Lsh(one, 255)
	out.Div(out, val)
	return out.Lsh(out, 1)
}

// BoundaryToDifficulty returns the difficulty a result hash satisfies,
// 2^256 / boundary computed in a wider intermediate. A zero boundary panics.
func BoundaryToDifficulty(boundary common.Hash) *uint256.Int {
	value := new(big.Int).SetBytes(boundary[:])
	if value.Sign() == 0 {
		panic("boundary to difficulty: zero boundary")
	}
	if value.Cmp(big1) == 0 {
		return new(uint256.Int).SetAllOne()
	}
	out, overflow := uint256.FromBig(new(big.Int).Div(two256, value))
	if overflow {
		panic("boundary to difficulty: result exceeds 256 bits")
	}
	return out
}
