package types_test

import (
	"testing"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/tests"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func TestFixtureHashes(t *testing.T) {
	cases := []struct {
		name string
		hash common.Hash
	}{
		{tests.Mainnet8996777, common.HexToHash("0xb80bf91d6f459227a9c617c5d9823ff0b07f1098ea16788676f0b804ecd42f3b")},
		{tests.Mainnet8996778, common.HexToHash("0xb972df738904edb8adff9734eebdcb1d3b58fdfc68a48918720a4a247170f15e")},
		{tests.Ropsten6890091, common.HexToHash("0x1dafbf6a9825241ea5dfa7c3a54781c0784428f2ef3b588748521f83209d3caa")},
		{tests.Ropsten6890092, common.HexToHash("0x21fe7ebfb3639254a0867995f3d490e186576b42aeea8c60f8e3360c256f7974")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, err := tests.Header(c.name)
			require.NoError(t, err)
			require.Equal(t, c.hash, h.Hash())
			require.Equal(t, c.hash, h.RecomputeHash())
		})
	}
}

func TestFixtureBareHashes(t *testing.T) {
	mainnet := tests.MustHeader(tests.Mainnet8996777)
	require.Equal(t, common.HexToHash("0x3c2e6623b1de8862a927eeeef2b6b25dea6e1d9dad88dca3c239be3959dc384a"), mainnet.BareHash())

	ropsten := tests.MustHeader(tests.Ropsten70000)
	require.Equal(t, common.HexToHash("0xbb698ea6e304a7a88a6cd8238f0e766b4f7bf70dc0869bd2e4a76a8e93fffc80"), ropsten.BareHash())
}

func TestFixtureParentLinks(t *testing.T) {
	parent := tests.MustHeader(tests.Ropsten6890091)
	child := tests.MustHeader(tests.Ropsten6890092)
	require.Equal(t, parent.Hash(), child.ParentHash())
	require.Equal(t, parent.Number()+1, child.Number())
}

func TestFixtureDecodeMemoizesInputHash(t *testing.T) {
	h := tests.MustHeader(tests.Mainnet8996778)
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	dec, err := types.DecodeHeader(enc)
	require.NoError(t, err)
	require.Equal(t, h.Hash(), dec.Hash())
	require.Equal(t, common.HexToHash("0x0ea8027f96c18f474e9bc74ff71d29aacd3f485d5825be0a8dde529eb82a47ed"), dec.MixDigest())
}
