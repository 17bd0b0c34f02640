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
	"math/big"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/dominant-strategies/go-ethrelay/tests"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCalcDifficultyMainnet(t *testing.T) {
	parent := tests.MustHeader(tests.Mainnet8996777)
	header := tests.MustHeader(tests.Mainnet8996778)

	want, _ := new(big.Int).SetString("92c07e50de0b9", 16)
	got := NewPartial(params.Production).CalcDifficulty(header, parent)
	require.Equal(t, want, got)
	require.Equal(t, header.Difficulty(), got)
}

func TestCalcDifficultyNetworkIds(t *testing.T) {
	parent := tests.MustHeader(tests.Mainnet8996777)
	header := tests.MustHeader(tests.Mainnet8996778)

	// only id 1 leaves the production rules
	for _, id := range []params.EthNetwork{0, 2, 7} {
		require.Equal(t, header.Difficulty(), NewPartial(id).CalcDifficulty(header, parent), "network %d", id)
	}
	require.NotEqual(t, header.Difficulty(), NewPartialWithParams(2, params.ExpanseEthashParams()).CalcDifficulty(header, parent))
}

func TestCalcDifficultyRopsten(t *testing.T) {
	parent := tests.MustHeader(tests.Ropsten6890091)
	header := tests.MustHeader(tests.Ropsten6890092)

	got := NewPartial(params.Ropsten).CalcDifficulty(header, parent)
	require.Equal(t, big.NewInt(0xf3c49f25), got)
	require.Equal(t, header.Difficulty(), got)
}

func TestCalcDifficultyGenesisPanics(t *testing.T) {
	genesis := types.NewHeader()
	require.Panics(t, func() {
		NewPartial(params.Production).CalcDifficulty(genesis, genesis)
	})
}

func chainPair(number, parentTime, time uint64, parentDifficulty *big.Int) (*types.Header, *types.Header) {
	parent := types.NewHeader()
	parent.SetNumber(number - 1)
	parent.SetTime(parentTime)
	parent.SetDifficulty(parentDifficulty)

	header := types.NewHeader()
	header.SetNumber(number)
	header.SetTime(time)
	header.SetParentHash(parent.Hash())
	return header, parent
}

func TestCalcDifficultyRules(t *testing.T) {
	million := big.NewInt(1_000_000_000)
	adjust := new(big.Int).Div(million, big.NewInt(2048))
	// block 2_000_000 is 20 bomb periods in
	bomb := big.NewInt(1 << 18)
	sum := func(vals ...*big.Int) *big.Int {
		out := new(big.Int)
		for _, v := range vals {
			out.Add(out, v)
		}
		return out
	}

	tests := []struct {
		name    string
		network params.EthNetwork
		number  uint64
		delta   uint64
		parent  *big.Int
		uncles  bool
		want    *big.Int
	}{
		{
			name: "frontier fast block", network: params.Production, number: 10, delta: 5, parent: million,
			want: new(big.Int).Add(million, adjust),
		},
		{
			name: "frontier slow block", network: params.Production, number: 10, delta: 13, parent: million,
			want: new(big.Int).Sub(million, adjust),
		},
		{
			name: "homestead on target", network: params.Production, number: 2_000_000, delta: 10, parent: million,
			want: sum(million, bomb),
		},
		{
			name: "homestead far behind is capped at 99", network: params.Production, number: 2_000_000, delta: 100_000, parent: million,
			want: sum(million, new(big.Int).Mul(adjust, big.NewInt(-99)), bomb),
		},
		{
			name: "clamped to the minimum before the bomb", network: params.Production, number: 2_000_000, delta: 100_000, parent: big.NewInt(params.MinimumDifficulty),
			want: sum(big.NewInt(params.MinimumDifficulty), bomb),
		},
		{
			name: "byzantium uncles threshold", network: params.Production, number: 4_400_000, delta: 9, parent: million, uncles: true,
			// fake number 1_400_000 adds 2^12
			want: new(big.Int).Add(new(big.Int).Add(million, adjust), big.NewInt(1<<12)),
		},
		{
			name: "byzantium no uncles", network: params.Production, number: 4_400_000, delta: 9, parent: million,
			want: new(big.Int).Add(million, big.NewInt(1<<12)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, parent := chainPair(tt.number, 1_000_000, 1_000_000+tt.delta, tt.parent)
			if tt.uncles {
				parent.SetUncleHash(common.HexToHash("0x01"))
			}
			require.Equal(t, tt.want, NewPartial(tt.network).CalcDifficulty(header, parent))
		})
	}
}

func TestCalcDifficultyBackwardsTimestamp(t *testing.T) {
	million := big.NewInt(1_000_000_000)
	header, parent := chainPair(2_000_000, 1_000_000, 999_000, million)
	adjust := new(big.Int).Div(million, big.NewInt(2048))
	want := new(big.Int).Add(million, adjust)
	want.Add(want, big.NewInt(1<<18))
	require.Equal(t, want, NewPartial(params.Production).CalcDifficulty(header, parent))
}

func TestDifficultyBombDelays(t *testing.T) {
	million := big.NewInt(1_000_000_000)
	header, parent := chainPair(4_400_000, 1_000_000, 1_000_009, million)

	partial := NewPartial(params.Production)
	before := partial.CalcDifficulty(header, parent)

	// pushing the bomb back by the whole height removes the bomb term
	partial.SetDifficultyBombDelays(4_370_000, 4_400_000)
	after := partial.CalcDifficulty(header, parent)
	require.Equal(t, million, after)
	require.Equal(t, 1, before.Cmp(after))

	// the constant sets are independent copies
	require.Equal(t, uint64(3_000_000), NewPartial(params.Production).Params().DifficultyBombDelays[4_370_000])
}

func TestExpanseRules(t *testing.T) {
	million := big.NewInt(1_000_000_000)
	partial := NewPartialWithParams(params.Production, params.ExpanseEthashParams())
	p := partial.Params()

	// bomb defused from homestead on: the result is the plain adjustment
	header, parent := chainPair(p.BombDefuseTransition+10, 1_000_000, 1_000_000+p.Expip2DurationLimit, million)
	withoutBomb := partial.CalcDifficulty(header, parent)
	require.Equal(t, 1, withoutBomb.Cmp(big.NewInt(params.MinimumDifficulty)))

	header, parent = chainPair(10, 1_000_000, 1_000_100, million)
	adjust := new(big.Int).Div(million, p.DifficultyBoundDivisor)
	require.Equal(t, new(big.Int).Sub(million, adjust), partial.CalcDifficulty(header, parent))
}

func TestCrossBoundary(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	require.Equal(t, max, CrossBoundary(uint256.NewInt(0)))
	require.Equal(t, max, CrossBoundary(uint256.NewInt(1)))
	require.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 255), CrossBoundary(uint256.NewInt(2)))
	require.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 236), CrossBoundary(new(uint256.Int).Lsh(uint256.NewInt(1), 20)))

	// powers of two round trip exactly
	x := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	require.Equal(t, x, CrossBoundary(CrossBoundary(x)))
}

func TestBoundaryToDifficulty(t *testing.T) {
	require.Equal(t, new(uint256.Int).SetAllOne(), BoundaryToDifficulty(common.BigToHash(big.NewInt(1))))
	require.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 255), BoundaryToDifficulty(common.BigToHash(big.NewInt(2))))
	require.Equal(t, uint256.NewInt(1), BoundaryToDifficulty(common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")))

	boundary := common.BigToHash(new(big.Int).Lsh(big.NewInt(1), 200))
	require.Equal(t, CrossBoundary(uint256.MustFromBig(new(big.Int).Lsh(big.NewInt(1), 200))), BoundaryToDifficulty(boundary))

	require.Panics(t, func() { BoundaryToDifficulty(common.Hash{}) })
}

func TestVerifyBlockBasicFixtures(t *testing.T) {
	fixtures := []struct {
		name    string
		network params.EthNetwork
	}{
		{tests.Mainnet8996777, params.Production},
		{tests.Mainnet8996778, params.Production},
		{tests.Ropsten6890091, params.Ropsten},
		{tests.Ropsten6890092, params.Ropsten},
		{tests.Ropsten70000, params.Ropsten},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			require.NoError(t, NewPartial(f.network).VerifyBlockBasic(tests.MustHeader(f.name)))
		})
	}
}

func TestVerifyBlockBasicRejects(t *testing.T) {
	partial := NewPartial(params.Production)

	header := tests.MustHeader(tests.Mainnet8996777)
	header.SetEthashSeal(common.Hash{}, types.BlockNonce{})
	header.SetDifficulty(new(big.Int).Lsh(big.NewInt(1), 200))
	require.ErrorIs(t, partial.VerifyBlockBasic(header), consensus.ErrInvalidProofOfWork)

	header = tests.MustHeader(tests.Mainnet8996777)
	header.SetDifficulty(big.NewInt(params.MinimumDifficulty - 1))
	require.ErrorIs(t, partial.VerifyBlockBasic(header), consensus.ErrDifficultyOutOfBounds)

	header = tests.MustHeader(tests.Mainnet8996777)
	header.SetSeal(header.Seal()[:1])
	require.ErrorIs(t, partial.VerifyBlockBasic(header), consensus.ErrInvalidSealArity)

	header = tests.MustHeader(tests.Mainnet8996777)
	header.SetSeal([][]byte{{0xc0}, {0x88}})
	require.ErrorIs(t, partial.VerifyBlockBasic(header), consensus.ErrSealRlpDecode)

	// a nonce change moves the quick difficulty far below the claim
	header = tests.MustHeader(tests.Mainnet8996777)
	header.SetEthashSeal(header.MixDigest(), types.EncodeNonce(header.Nonce().Uint64()+1))
	require.ErrorIs(t, partial.VerifyBlockBasic(header), consensus.ErrInvalidProofOfWork)
}

func TestRequiresMixHashCheck(t *testing.T) {
	require.True(t, NewPartial(params.Production).RequiresMixHashCheck())
	require.False(t, NewPartial(params.Ropsten).RequiresMixHashCheck())
	require.True(t, NewPartialWithParams(params.Production, params.ExpanseEthashParams()).RequiresMixHashCheck())
	// unknown ids use the production rules
	unknown := NewPartial(params.EthNetwork(42))
	require.True(t, unknown.RequiresMixHashCheck())
	require.Equal(t, params.ProductionEthashParams(), unknown.Params())
}
