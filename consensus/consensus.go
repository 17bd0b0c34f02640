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

// Package consensus defines the proof-of-work engine the relay verifies
// headers with.
package consensus

import (
	"math/big"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/ethereum/go-ethereum/common"
)

// Engine is the header verification surface of a PoW consensus engine.
type Engine interface {
	// Network returns the network whose rules the engine enforces.
	Network() params.EthNetwork

	// VerifyBlockBasic checks the seal layout, the minimum difficulty and the
	// cheap proof-of-work boundary derived from the sealed mix hash.
	VerifyBlockBasic(header *types.Header) error

	// CalcDifficulty is the difficulty adjustment algorithm. It returns the
	// difficulty header must have given its parent.
	CalcDifficulty(header, parent *types.Header) *big.Int

	// RequiresMixHashCheck reports whether VerifySeal must be run on relayed
	// headers of this network.
	RequiresMixHashCheck() bool

	// VerifySeal recomputes the mix digest of the header with a light cache
	// and checks it against the sealed one.
	VerifySeal(header *types.Header) error

	// Hashimoto returns the mix digest and the result hash of the proof of
	// work for the given pre-image at the epoch of the block number.
	Hashimoto(number uint64, bareHash common.Hash, nonce types.BlockNonce) (mix, result common.Hash)

	// Close terminates any background threads maintained by the engine.
	Close() error
}
