package relay

import (
	"math/big"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

// openConfig disables every window and gate so tests opt into what they check.
var openConfig = Config{
	NumberOfBlocksFinality: 100,
	NumberOfBlocksSafe:     0,
	CheckAuthorities:       false,
}

func newTestRelay(t *testing.T, engine consensus.Engine, config Config) *Relay {
	t.Helper()
	db := rawdb.NewMemoryDatabase(log.NewNullLogger())
	r := New(db, engine, config, log.NewNullLogger())
	t.Cleanup(func() {
		r.Close()
		db.Close()
	})
	return r
}

// genesisHeader returns a sealed header below the homestead transition where
// the frontier difficulty rule applies.
func genesisHeader(number uint64, difficulty int64) *types.Header {
	header := types.NewHeader()
	header.SetNumber(number)
	header.SetTime(1500000000)
	header.SetDifficulty(big.NewInt(difficulty))
	header.SetGasLimit(big.NewInt(8000000))
	header.SetEthashSeal(common.Hash{}, types.EncodeNonce(number))
	return header
}

// child builds a valid child of parent delta seconds later. Under the frontier
// rule a delta below 13 raises the difficulty and any other lowers it.
func child(engine consensus.Engine, parent *types.Header, delta uint64, mutate func(*types.Header)) *types.Header {
	header := types.NewHeader()
	header.SetParentHash(parent.Hash())
	header.SetNumber(parent.Number() + 1)
	header.SetTime(parent.Time() + delta)
	header.SetGasLimit(parent.GasLimit())
	header.SetEthashSeal(common.Hash{}, types.EncodeNonce(parent.Number()+1))
	if mutate != nil {
		mutate(header)
	}
	header.SetDifficulty(engine.CalcDifficulty(header, parent))
	return header
}

// extend relays n children on top of parent and returns them.
func extend(t *testing.T, r *Relay, parent *types.Header, n int) []*types.Header {
	t.Helper()
	headers := make([]*types.Header, 0, n)
	for i := 0; i < n; i++ {
		parent = child(r.Engine(), parent, 10, nil)
		require.NoError(t, r.RelayHeader(Root(), parent))
		headers = append(headers, parent)
	}
	return headers
}

func withAuthor(addr common.Address) func(*types.Header) {
	return func(h *types.Header) { h.SetAuthor(addr) }
}

// testReceipts returns n distinct receipts tagged with seed.
func testReceipts(n int, seed byte) []*types.Receipt {
	receipts := make([]*types.Receipt, n)
	for i := range receipts {
		logs := []*types.LogEntry{{
			Address: common.Address{seed, byte(i)},
			Topics:  []common.Hash{{seed}, {byte(i)}},
			Data:    []byte{seed, byte(i)},
		}}
		receipts[i] = types.NewReceipt(types.StatusOutcome(1), big.NewInt(int64(21000*(i+1))), logs)
	}
	return receipts
}

// childWithReceipts is child committing to receipts. It returns the proof of
// the receipt at index.
func childWithReceipts(t *testing.T, engine consensus.Engine, parent *types.Header, delta uint64, receipts []*types.Receipt, index uint64, mutate func(*types.Header)) (*types.Header, *types.ReceiptProof) {
	t.Helper()
	root, proof, err := trie.ProveReceipts(receipts, index)
	require.NoError(t, err)
	header := child(engine, parent, delta, func(h *types.Header) {
		h.SetReceiptsRoot(root)
		if mutate != nil {
			mutate(h)
		}
	})
	return header, &types.ReceiptProof{Index: index, Proof: proof, HeaderHash: header.Hash()}
}
