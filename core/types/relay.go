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

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HeaderInfo is the bookkeeping kept for every accepted header.
type HeaderInfo struct {
	TotalDifficulty *big.Int    `json:"totalDifficulty"`
	ParentHash      common.Hash `json:"parentHash"`
	Number          uint64      `json:"number"`
}

// ReceiptProof is relayer supplied evidence that a receipt sits at Index in
// the receipts trie of the header HeaderHash. Proof is the RLP list of trie
// nodes from the root down to the leaf.
type ReceiptProof struct {
	Index      uint64        `json:"index"`
	Proof      hexutil.Bytes `json:"proof"`
	HeaderHash common.Hash   `json:"headerHash"`
}
