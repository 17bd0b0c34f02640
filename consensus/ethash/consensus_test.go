// Copyright 2017 The go-ethereum Authors
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
	"math/big"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/dominant-strategies/go-ethrelay/tests"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func zeroSealHeader(number uint64, difficulty *big.Int) *types.Header {
	header := types.NewHeader()
	header.SetNumber(number)
	header.SetDifficulty(difficulty)
	header.SetEthashSeal(common.Hash{}, types.BlockNonce{})
	return header
}

func TestFakeModes(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)

	faker := NewFaker(params.Production)
	require.NoError(t, faker.VerifyBlockBasic(zeroSealHeader(5, huge)))
	require.NoError(t, faker.VerifySeal(zeroSealHeader(5, huge)))
	require.ErrorIs(t, faker.VerifyBlockBasic(zeroSealHeader(5, big.NewInt(1))), consensus.ErrDifficultyOutOfBounds)

	noSeal := zeroSealHeader(5, huge)
	noSeal.SetSeal(nil)
	require.ErrorIs(t, faker.VerifyBlockBasic(noSeal), consensus.ErrInvalidSealArity)

	failer := NewFakeFailer(params.Production, 7)
	require.NoError(t, failer.VerifyBlockBasic(zeroSealHeader(6, huge)))
	require.ErrorIs(t, failer.VerifyBlockBasic(zeroSealHeader(7, huge)), consensus.ErrInvalidProofOfWork)
	require.ErrorIs(t, failer.VerifySeal(zeroSealHeader(7, huge)), consensus.ErrInvalidMixDigest)

	full := NewFullFaker(params.Production)
	require.NoError(t, full.VerifyBlockBasic(noSeal))
	require.NoError(t, full.VerifyBlockBasic(zeroSealHeader(5, big.NewInt(1))))
	require.NoError(t, full.VerifySeal(noSeal))
}

func TestNormalModeRejectsZeroSeal(t *testing.T) {
	ethash := New(Config{Network: params.Production}, log.NewNullLogger())
	defer ethash.Close()

	err := ethash.VerifyBlockBasic(zeroSealHeader(5, new(big.Int).Lsh(big.NewInt(1), 200)))
	require.ErrorIs(t, err, consensus.ErrInvalidProofOfWork)
}

func TestVerifySealTestMode(t *testing.T) {
	ethash := NewTester(params.Production)
	defer ethash.Close()

	header := zeroSealHeader(1, big.NewInt(params.MinimumDifficulty))
	mix, _ := ethash.Hashimoto(header.Number(), header.BareHash(), header.Nonce())
	require.ErrorIs(t, ethash.VerifySeal(header), consensus.ErrInvalidMixDigest)

	header.SetEthashSeal(mix, header.Nonce())
	require.NoError(t, ethash.VerifySeal(header))
}

func TestVerifySealCacheUnavailable(t *testing.T) {
	ethash := NewTester(params.Production)
	defer ethash.Close()

	// a cache whose generation already ran and left no content
	broken := newCache(0).(*cache)
	broken.once.Do(func() {})
	ethash.caches.cache.Add(uint64(0), broken)

	header := zeroSealHeader(1, big.NewInt(params.MinimumDifficulty))
	require.ErrorIs(t, ethash.VerifySeal(header), consensus.ErrCacheUnavailable)

	_, ok := ethash.caches.cache.Peek(uint64(0))
	require.False(t, ok)

	// the next call regenerates the epoch and succeeds
	mix, result := ethash.Hashimoto(header.Number(), header.BareHash(), header.Nonce())
	require.NotEqual(t, common.Hash{}, mix)
	require.NotEqual(t, common.Hash{}, result)
	header.SetEthashSeal(mix, header.Nonce())
	require.NoError(t, ethash.VerifySeal(header))
}

func TestVerifySealFixtures(t *testing.T) {
	if testing.Short() {
		t.Skip("generates full sized ethash caches")
	}
	ethash := New(Config{Network: params.Production, CachesInMem: 2}, log.NewNullLogger())
	defer ethash.Close()

	header := tests.MustHeader(tests.Mainnet8996777)
	require.NoError(t, ethash.VerifyBlockBasic(header))
	require.NoError(t, ethash.VerifySeal(header))

	header.SetEthashSeal(header.MixDigest(), types.EncodeNonce(header.Nonce().Uint64()^1))
	require.ErrorIs(t, ethash.VerifySeal(header), consensus.ErrInvalidMixDigest)
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{ModeNormal, ModeTest, ModeFake, ModeFullFake} {
		parsed, err := ParseMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, parsed)
	}
	_, err := ParseMode("shared")
	require.Error(t, err)
}

func TestConfigRulesOverrideNetwork(t *testing.T) {
	engine := New(Config{PowMode: ModeFake, Network: params.Production, Rules: params.ExpanseEthashParams()}, log.NewNullLogger())
	defer engine.Close()
	require.Equal(t, params.Production, engine.Network())
	require.Equal(t, params.ExpanseEthashParams(), engine.Params())

	plain := NewFaker(params.EthNetwork(2))
	defer plain.Close()
	require.Equal(t, params.ProductionEthashParams(), plain.Params())
}
