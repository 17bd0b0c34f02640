package trie

import (
	"math/big"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

// kovan block 13376543 holds a single transaction whose receipt hashes to the
// block's receipts root.
var kovanReceiptsRoot = common.HexToHash("0xc789eb8b7f5876f4df4f8ae16f95c9881eabfb700ee7d8a00a51fb4a71afbac9")

func kovanReceipt() *types.Receipt {
	logs := []*types.LogEntry{{
		Address: common.HexToAddress("0xa24df0420de1f3b8d740a52aaeb9d55d6d64478e"),
		Topics:  []common.Hash{common.HexToHash("0xf36406321d51f9ba55d04e900c1d56caac28601524e09d53e9010e03f83d7d00")},
		Data:    hexutil.MustDecode("0x0000000000000000000000000000000000000000000000000000000000000080000000000000000000000000000000000000000000000000000363384a3868b9000000000000000000000000000000000000000000000000000000005d75f54f0000000000000000000000000000000000000000000000000000000000000001000000000000000000000000000000000000000000000000000000000000000e53504f5450582f4241542d455448000000000000000000000000000000000000"),
	}}
	return types.NewReceipt(types.StatusOutcome(1), big.NewInt(73705), logs)
}

func syntheticReceipts(n int) []*types.Receipt {
	receipts := make([]*types.Receipt, n)
	for i := range receipts {
		logs := []*types.LogEntry{{
			Address: common.BigToAddress(big.NewInt(int64(i + 1))),
			Topics:  []common.Hash{common.BigToHash(big.NewInt(int64(i)))},
			Data:    []byte{byte(i)},
		}}
		receipts[i] = types.NewReceipt(types.StatusOutcome(uint8(i%2)), big.NewInt(int64(21000*(i+1))), logs)
	}
	return receipts
}

func TestKovanReceiptProof(t *testing.T) {
	want := kovanReceipt()
	root, proof, err := ProveReceipts([]*types.Receipt{want}, 0)
	require.NoError(t, err)
	require.Equal(t, kovanReceiptsRoot, root)

	got, err := VerifyReceiptProof(kovanReceiptsRoot, 0, proof)
	require.NoError(t, err)
	require.True(t, want.Equal(got))
	require.Equal(t, want.LogBloom, got.LogBloom)
}

func TestReceiptProofEveryIndex(t *testing.T) {
	receipts := syntheticReceipts(130)
	for _, index := range []uint64{0, 1, 15, 16, 127, 128, 129} {
		root, proof, err := ProveReceipts(receipts, index)
		require.NoError(t, err)

		got, err := VerifyReceiptProof(root, index, proof)
		require.NoError(t, err, "index %d", index)
		require.True(t, receipts[index].Equal(got), "index %d", index)
	}
}

func TestReceiptProofRejections(t *testing.T) {
	receipts := syntheticReceipts(20)
	root, proof, err := ProveReceipts(receipts, 3)
	require.NoError(t, err)

	// wrong root
	_, err = VerifyReceiptProof(common.HexToHash("0x1234"), 3, proof)
	require.ErrorIs(t, err, ErrProofVerify)

	// proof for another index does not reach index 3's leaf
	_, err = VerifyReceiptProof(root, 4, proof)
	require.Error(t, err)

	// an index beyond the trie is proven absent
	absentRoot, absentProof, err := ProveReceipts(receipts, 1000)
	require.NoError(t, err)
	_, err = VerifyReceiptProof(absentRoot, 1000, absentProof)
	require.ErrorIs(t, err, ErrKeyNotFound)

	// not an rlp list
	_, err = VerifyReceiptProof(root, 3, []byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrProofDecode)

	// empty list
	empty, _ := rlp.EncodeToBytes([][]byte{})
	_, err = VerifyReceiptProof(root, 3, empty)
	require.ErrorIs(t, err, ErrProofDecode)
}

func TestReceiptProofRejectsNonReceiptValue(t *testing.T) {
	// a leaf whose value is not a receipt list
	leaf, err := rlp.EncodeToBytes([]interface{}{[]byte{0x20, 0x80}, []byte("not a receipt, but long enough")})
	require.NoError(t, err)
	proof, err := rlp.EncodeToBytes([][]byte{leaf})
	require.NoError(t, err)

	root := crypto.Keccak256Hash(leaf)
	_, err = VerifyReceiptProof(root, 0, proof)
	require.ErrorIs(t, err, ErrReceiptDecode)
}
