package relay

import (
	"math/big"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/consensus/ethash"
	"github.com/dominant-strategies/go-ethrelay/consensus/mocks"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRelayHeaderExtendsCanonicalChain(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	r := newTestRelay(t, engine, openConfig)

	genesis := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))
	require.Equal(t, genesis.Hash(), r.GenesisHeaderHash())
	require.Equal(t, genesis.Hash(), r.BestHeaderHash())
	require.Equal(t, genesis.Hash(), r.CanonicalHeaderHashOf(1000))

	events := make(chan RelayHeaderEvent, 8)
	sub := r.SubscribeRelayHeaderEvent(events)
	defer sub.Unsubscribe()

	headers := extend(t, r, genesis, 5)
	td := genesis.Difficulty()
	for _, header := range headers {
		td = new(big.Int).Add(td, header.Difficulty())

		info := r.HeaderInfoOf(header.Hash())
		require.NotNil(t, info)
		require.Zero(t, td.Cmp(info.TotalDifficulty))
		require.Equal(t, header.ParentHash(), info.ParentHash)
		require.Equal(t, header.Number(), info.Number)
		require.Equal(t, header.Hash(), r.CanonicalHeaderHashOf(header.Number()))

		ev := <-events
		require.True(t, ev.Best)
		require.Zero(t, ev.Reorged)
		require.Equal(t, header.Hash(), ev.Header.Hash())
	}
	require.Equal(t, headers[4].Hash(), r.BestHeaderHash())
	require.Zero(t, td.Cmp(r.BestTotalDifficulty()))
	require.True(t, r.HeaderOf(headers[2].Hash()).Equal(headers[2]))

	numbers, hashes := r.CanonicalHeaderHashes(1000, 1010, 100)
	require.Equal(t, []uint64{1000, 1001, 1002, 1003, 1004, 1005}, numbers)
	require.Equal(t, genesis.Hash(), hashes[0])
	require.Equal(t, headers[4].Hash(), hashes[5])
}

func TestRelayHeaderDuplicateAndOrdering(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	r := newTestRelay(t, engine, openConfig)

	genesis := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

	first := child(engine, genesis, 10, nil)
	second := child(engine, first, 10, nil)

	require.ErrorIs(t, r.RelayHeader(Root(), second), ErrHeaderNE)
	require.NoError(t, r.RelayHeader(Root(), first))
	require.ErrorIs(t, r.RelayHeader(Root(), first), ErrHeaderAE)
	require.ErrorIs(t, r.RelayHeader(Root(), genesis), ErrHeaderAE)
	require.NoError(t, r.RelayHeader(Root(), second))
	require.Equal(t, second.Hash(), r.BestHeaderHash())
}

func TestRelayHeaderRequiresGenesis(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	r := newTestRelay(t, engine, openConfig)

	header := child(engine, genesisHeader(1000, 1<<29), 10, nil)
	require.ErrorIs(t, r.RelayHeader(Root(), header), ErrGenesisNE)
	require.Equal(t, common.Hash{}, r.BestHeaderHash())
}

func TestRelayHeaderRejections(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	genesis := genesisHeader(1000, 1<<29)

	tests := []struct {
		name   string
		header func() *types.Header
		err    error
		cause  error
	}{
		{
			name: "stale memoized hash",
			header: func() *types.Header {
				h := child(engine, genesis, 10, nil)
				h.SetClaimedHash(common.Hash{0x01})
				return h
			},
			err: ErrHeaderHashMis,
		},
		{
			name:   "below genesis",
			header: func() *types.Header { return genesisHeader(999, 1<<29) },
			err:    ErrHeaderTE,
		},
		{
			name: "unknown parent",
			header: func() *types.Header {
				return child(engine, child(engine, genesis, 5, nil), 10, nil)
			},
			err: ErrHeaderNE,
		},
		{
			name: "number gap",
			header: func() *types.Header {
				h := child(engine, genesis, 10, nil)
				h.SetNumber(genesis.Number() + 2)
				return h
			},
			err: ErrBlockNumberMis,
		},
		{
			name: "seal arity",
			header: func() *types.Header {
				h := child(engine, genesis, 10, nil)
				h.SetSeal([][]byte{{0x80}})
				return h
			},
			err:   ErrBlockBasicVF,
			cause: consensus.ErrInvalidSealArity,
		},
		{
			name: "below minimum difficulty",
			header: func() *types.Header {
				h := child(engine, genesis, 10, nil)
				h.SetDifficulty(big.NewInt(1000))
				return h
			},
			err:   ErrBlockBasicVF,
			cause: consensus.ErrDifficultyOutOfBounds,
		},
		{
			name: "wrong difficulty",
			header: func() *types.Header {
				h := child(engine, genesis, 10, nil)
				h.SetDifficulty(new(big.Int).Add(h.Difficulty(), big.NewInt(1)))
				return h
			},
			err: ErrDifficultyVF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRelay(t, engine, openConfig)
			require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

			header := tt.header()
			err := r.RelayHeader(Root(), header)
			require.ErrorIs(t, err, tt.err)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
			// nothing is written by a rejected header
			require.Equal(t, genesis.Hash(), r.BestHeaderHash())
			require.Nil(t, r.HeaderInfoOf(header.Hash()))
			require.Nil(t, r.HeaderOf(header.RecomputeHash()))
		})
	}
}

func TestRelayHeaderFakeFailure(t *testing.T) {
	engine := ethash.NewFakeFailer(params.Production, 1002)
	r := newTestRelay(t, engine, openConfig)

	genesis := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

	headers := extend(t, r, genesis, 1)
	err := r.RelayHeader(Root(), child(engine, headers[0], 10, nil))
	require.ErrorIs(t, err, ErrBlockBasicVF)
	require.ErrorIs(t, err, consensus.ErrInvalidProofOfWork)
}

func TestRelayHeaderMixHashCheck(t *testing.T) {
	faker := ethash.NewFaker(params.Production)
	genesis := genesisHeader(1000, 1<<29)
	header := child(faker, genesis, 10, nil)

	t.Run("required", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mocks.NewMockEngine(ctrl)
		r := newTestRelay(t, engine, openConfig)
		require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

		engine.EXPECT().VerifyBlockBasic(header).Return(nil)
		engine.EXPECT().CalcDifficulty(header, gomock.Any()).Return(header.Difficulty())
		engine.EXPECT().RequiresMixHashCheck().Return(true)
		engine.EXPECT().VerifySeal(header).Return(consensus.ErrInvalidMixDigest)

		err := r.RelayHeader(Root(), header)
		require.ErrorIs(t, err, ErrMixhashMis)
		require.ErrorIs(t, err, consensus.ErrInvalidMixDigest)
		require.Equal(t, genesis.Hash(), r.BestHeaderHash())
	})

	t.Run("exempt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mocks.NewMockEngine(ctrl)
		r := newTestRelay(t, engine, openConfig)
		require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

		// VerifySeal must not be reached
		engine.EXPECT().VerifyBlockBasic(header).Return(nil)
		engine.EXPECT().CalcDifficulty(header, gomock.Any()).Return(header.Difficulty())
		engine.EXPECT().RequiresMixHashCheck().Return(false)

		require.NoError(t, r.RelayHeader(Root(), header))
		require.Equal(t, header.Hash(), r.BestHeaderHash())
	})

	t.Run("difficulty first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mocks.NewMockEngine(ctrl)
		r := newTestRelay(t, engine, openConfig)
		require.NoError(t, r.InitGenesisHeader(genesis, genesis.Difficulty()))

		engine.EXPECT().VerifyBlockBasic(header).Return(nil)
		engine.EXPECT().CalcDifficulty(header, gomock.Any()).Return(big.NewInt(params.MinimumDifficulty))

		require.ErrorIs(t, r.RelayHeader(Root(), header), ErrDifficultyVF)
	})
}

// Two children of the same parent with the same timestamp carry the same
// difficulty. With an even difficulty the later one wins the tie.
func TestCanonicalReorgUncle(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	origin := genesisHeader(1000, 1<<29)

	grandpa, proof := childWithReceipts(t, engine, origin, 10, testReceipts(3, 1), 1, withAuthor(alice))
	uncle := child(engine, origin, 10, withAuthor(bob))

	require.NotEqual(t, grandpa.Hash(), uncle.Hash())
	require.Equal(t, grandpa.Number(), uncle.Number())
	require.Zero(t, grandpa.Difficulty().Cmp(uncle.Difficulty()))
	require.Zero(t, grandpa.Difficulty().Bit(0))

	t.Run("grandpa re-orgs uncle", func(t *testing.T) {
		r := newTestRelay(t, engine, openConfig)
		require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))

		require.NoError(t, r.RelayHeader(Root(), uncle))
		require.Equal(t, uncle.Hash(), r.CanonicalHeaderHashOf(uncle.Number()))

		events := make(chan RelayHeaderEvent, 1)
		sub := r.SubscribeRelayHeaderEvent(events)
		defer sub.Unsubscribe()

		require.NoError(t, r.RelayHeader(Root(), grandpa))
		require.Equal(t, grandpa.Hash(), r.CanonicalHeaderHashOf(grandpa.Number()))
		require.Equal(t, grandpa.Hash(), r.BestHeaderHash())

		ev := <-events
		require.True(t, ev.Best)
		require.Equal(t, 1, ev.Reorged)
	})

	t.Run("checked receipt is re-orged out", func(t *testing.T) {
		r := newTestRelay(t, engine, openConfig)
		require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))

		require.NoError(t, r.RelayHeader(Root(), grandpa))
		receipt, err := r.CheckReceipt(Root(), proof)
		require.NoError(t, err)
		require.True(t, testReceipts(3, 1)[1].Equal(receipt))

		require.NoError(t, r.RelayHeader(Root(), uncle))
		_, err = r.CheckReceipt(Root(), proof)
		require.ErrorIs(t, err, ErrHeaderNC)
	})
}

// With an odd difficulty a tie keeps the first seen header, and the canonical
// index only moves once the other side becomes strictly heavier.
func TestCanonicalReorgOnHeavierChain(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	r := newTestRelay(t, engine, openConfig)

	origin := genesisHeader(1000, 1<<29+1)
	require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))

	uncle, proof := childWithReceipts(t, engine, origin, 10, testReceipts(2, 7), 0, withAuthor(bob))
	grandpa := child(engine, origin, 10, withAuthor(alice))
	require.Equal(t, uint(1), uncle.Difficulty().Bit(0))

	require.NoError(t, r.RelayHeader(Root(), uncle))
	_, err := r.VerifyReceipt(proof)
	require.NoError(t, err)

	require.NoError(t, r.RelayHeader(Root(), grandpa))
	require.Equal(t, uncle.Hash(), r.CanonicalHeaderHashOf(1001))
	require.Equal(t, uncle.Hash(), r.BestHeaderHash())
	require.NotNil(t, r.HeaderOf(grandpa.Hash()))

	events := make(chan RelayHeaderEvent, 1)
	sub := r.SubscribeRelayHeaderEvent(events)
	defer sub.Unsubscribe()

	parent := child(engine, grandpa, 10, nil)
	require.NoError(t, r.RelayHeader(Root(), parent))
	require.Equal(t, parent.Hash(), r.BestHeaderHash())
	require.Equal(t, parent.Hash(), r.CanonicalHeaderHashOf(1002))
	require.Equal(t, grandpa.Hash(), r.CanonicalHeaderHashOf(1001))
	require.Equal(t, origin.Hash(), r.CanonicalHeaderHashOf(1000))

	ev := <-events
	require.Equal(t, 1, ev.Reorged)

	_, err = r.VerifyReceipt(proof)
	require.ErrorIs(t, err, ErrHeaderNC)
}

func TestSafetyWindow(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	config := openConfig
	config.NumberOfBlocksSafe = 2
	r := newTestRelay(t, engine, config)

	origin := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))

	receipts := testReceipts(4, 3)
	grandpa, proof := childWithReceipts(t, engine, origin, 10, receipts, 2, nil)
	require.NoError(t, r.RelayHeader(Root(), grandpa))

	_, err := r.VerifyReceipt(proof)
	require.ErrorIs(t, err, ErrHeaderNS)

	headers := extend(t, r, grandpa, 1)
	_, err = r.VerifyReceipt(proof)
	require.ErrorIs(t, err, ErrHeaderNS)

	extend(t, r, headers[0], 1)
	receipt, err := r.VerifyReceipt(proof)
	require.NoError(t, err)
	require.True(t, receipts[2].Equal(receipt))

	// raising the window makes the same receipt unsafe again
	require.NoError(t, r.SetNumberOfBlocksSafe(Root(), 3))
	_, err = r.VerifyReceipt(proof)
	require.ErrorIs(t, err, ErrHeaderNS)
}

func TestFinalityWindow(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	config := openConfig
	config.NumberOfBlocksFinality = 2
	r := newTestRelay(t, engine, config)

	origin := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))
	headers := extend(t, r, origin, 4)
	require.Equal(t, uint64(1004), r.HeaderInfoOf(r.BestHeaderHash()).Number)

	// 1004 > 1001 + 2
	old := child(engine, origin, 20, withAuthor(bob))
	require.ErrorIs(t, r.RelayHeader(Root(), old), ErrHeaderTO)
	require.Nil(t, r.HeaderOf(old.Hash()))

	// 1004 is not beyond 1002 + 2
	side := child(engine, headers[0], 20, withAuthor(bob))
	require.NoError(t, r.RelayHeader(Root(), side))
	require.Equal(t, headers[3].Hash(), r.BestHeaderHash())
	require.Equal(t, headers[1].Hash(), r.CanonicalHeaderHashOf(1002))
}

func TestVerifyReceiptRejections(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	r := newTestRelay(t, engine, openConfig)

	origin := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))

	receipts := testReceipts(3, 5)
	header, proof := childWithReceipts(t, engine, origin, 10, receipts, 1, nil)
	require.NoError(t, r.RelayHeader(Root(), header))

	got, err := r.VerifyReceipt(proof)
	require.NoError(t, err)
	require.True(t, receipts[1].Equal(got))

	unknown := *proof
	unknown.HeaderHash = common.Hash{0xde, 0xad}
	_, err = r.VerifyReceipt(&unknown)
	require.ErrorIs(t, err, ErrHeaderInfoNE)

	wrongIndex := *proof
	wrongIndex.Index = 2
	_, err = r.VerifyReceipt(&wrongIndex)
	require.ErrorIs(t, err, ErrProofVF)

	garbage := *proof
	garbage.Proof = []byte{0x01}
	_, err = r.VerifyReceipt(&garbage)
	require.ErrorIs(t, err, ErrRlpDcF)

	_, foreign := childWithReceipts(t, engine, origin, 10, testReceipts(3, 9), 1, nil)
	foreign.HeaderHash = header.Hash()
	_, err = r.VerifyReceipt(foreign)
	require.ErrorIs(t, err, ErrProofVF)

	_, absent := childWithReceipts(t, engine, origin, 10, receipts, 7, nil)
	absent.HeaderHash = header.Hash()
	_, err = r.VerifyReceipt(absent)
	require.ErrorIs(t, err, ErrTrieKeyNE)
}

func TestResetGenesisHeader(t *testing.T) {
	engine := ethash.NewFaker(params.Production)
	config := openConfig
	config.CheckAuthorities = true
	config.Authorities = []common.Address{alice}
	r := newTestRelay(t, engine, config)

	origin := genesisHeader(1000, 1<<29)
	require.NoError(t, r.InitGenesisHeader(origin, origin.Difficulty()))
	headers := extend(t, r, origin, 3)

	events := make(chan SetGenesisHeaderEvent, 1)
	sub := r.SubscribeSetGenesisHeaderEvent(events)
	defer sub.Unsubscribe()

	require.ErrorIs(t, r.ResetGenesisHeader(Signed(bob), headers[0], big.NewInt(5)), ErrAccountNP)
	require.NoError(t, r.ResetGenesisHeader(Signed(alice), headers[0], big.NewInt(5)))

	ev := <-events
	require.Equal(t, Signed(alice), ev.Origin)
	require.Equal(t, headers[0].Hash(), ev.Header.Hash())
	require.Equal(t, int64(5), ev.Difficulty.Int64())

	require.Equal(t, headers[0].Hash(), r.GenesisHeaderHash())
	require.Equal(t, headers[0].Hash(), r.BestHeaderHash())
	require.Equal(t, int64(5), r.HeaderInfoOf(headers[0].Hash()).TotalDifficulty.Int64())
	require.Equal(t, origin.Hash(), r.CanonicalHeaderHashOf(1000))
	require.Equal(t, headers[0].Hash(), r.CanonicalHeaderHashOf(1001))
	require.Equal(t, common.Hash{}, r.CanonicalHeaderHashOf(1002))
	require.Equal(t, common.Hash{}, r.CanonicalHeaderHashOf(1003))

	require.ErrorIs(t, r.RelayHeader(Root(), genesisHeader(1000, 1<<29+2)), ErrHeaderTE)

	stale := headers[1].Copy()
	stale.SetClaimedHash(common.Hash{0x01})
	require.ErrorIs(t, r.InitGenesisHeader(stale, big.NewInt(1)), ErrHeaderHashMis)
}
