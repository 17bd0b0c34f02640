// Copyright 2015 The go-ethereum Authors
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

// Package trie verifies Merkle-Patricia inclusion proofs of transaction
// receipts against a header's receipts root.
package trie

import (
	"fmt"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
)

var (
	// ErrProofDecode is returned when the proof is not an RLP list of nodes.
	ErrProofDecode = errors.New("malformed receipt proof")

	// ErrKeyNotFound is returned when the proof proves the index is absent.
	ErrKeyNotFound = errors.New("receipt index not in trie")

	// ErrProofVerify is returned when the nodes do not hash up to the root.
	ErrProofVerify = errors.New("receipt proof verification failed")

	// ErrReceiptDecode is returned when the proven value is not a receipt.
	ErrReceiptDecode = errors.New("proven value is not a receipt")
)

// NodeList is the ordered list of trie nodes from the root to a leaf. It
// implements the go-ethereum key-value writer so trie.Prove can fill it.
type NodeList [][]byte

// Put appends a node. The key is the node hash and is implied by the value.
func (n *NodeList) Put(key []byte, value []byte) error {
	*n = append(*n, common.CopyBytes(value))
	return nil
}

// Delete panics as there's no reason to remove a node from the list.
func (n *NodeList) Delete(key []byte) error {
	panic("not supported")
}

// NodeSet builds a proof database keyed by node hash.
func (n NodeList) NodeSet() ethdb.KeyValueReader {
	db := memorydb.New()
	for _, node := range n {
		db.Put(crypto.Keccak256(node), node)
	}
	return db
}

// DecodeProof splits an RLP list of nodes into a proof database.
func DecodeProof(proof []byte) (ethdb.KeyValueReader, error) {
	var nodes [][]byte
	if err := rlp.DecodeBytes(proof, &nodes); err != nil {
		return nil, errors.Wrap(ErrProofDecode, err.Error())
	}
	if len(nodes) == 0 {
		return nil, ErrProofDecode
	}
	return NodeList(nodes).NodeSet(), nil
}

// ReceiptKey is the trie key of the receipt at index.
func ReceiptKey(index uint64) []byte {
	key, _ := rlp.EncodeToBytes(index)
	return key
}

// VerifyReceiptProof checks that proof shows a receipt at index under root and
// returns the decoded receipt.
func VerifyReceiptProof(root common.Hash, index uint64, proof []byte) (*types.Receipt, error) {
	nodes, err := DecodeProof(proof)
	if err != nil {
		return nil, err
	}
	value, err := gethtrie.VerifyProof(root, ReceiptKey(index), nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofVerify, err)
	}
	if value == nil {
		return nil, ErrKeyNotFound
	}
	receipt, err := types.DecodeReceipt(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptDecode, err)
	}
	return receipt, nil
}

// ProveReceipts builds the receipts trie of a block and returns its root
// together with the encoded proof of the receipt at index.
func ProveReceipts(receipts []*types.Receipt, index uint64) (common.Hash, []byte, error) {
	tr := gethtrie.NewEmpty(gethtrie.NewDatabase(memorydb.New()))
	for i, r := range receipts {
		value, err := r.MarshalBinary()
		if err != nil {
			return common.Hash{}, nil, errors.Wrapf(err, "encode receipt %d", i)
		}
		if err := tr.TryUpdate(ReceiptKey(uint64(i)), value); err != nil {
			return common.Hash{}, nil, err
		}
	}
	var nodes NodeList
	if err := tr.Prove(ReceiptKey(index), 0, &nodes); err != nil {
		return common.Hash{}, nil, err
	}
	proof, err := rlp.EncodeToBytes([][]byte(nodes))
	if err != nil {
		return common.Hash{}, nil, err
	}
	return tr.Hash(), proof, nil
}
