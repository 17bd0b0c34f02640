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
	"fmt"
	"runtime"

	"github.com/dominant-strategies/go-ethrelay/consensus"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/ethereum/go-ethereum/common"
)

var _ consensus.Engine = (*Ethash)(nil)

// VerifyBlockBasic checks the seal shape and the difficulty floor. Outside the
// fake modes it also runs the quick proof-of-work boundary check.
func (ethash *Ethash) VerifyBlockBasic(header *types.Header) error {
	if ethash.config.PowMode == ModeFullFake {
		return nil
	}
	seal, err := types.ParseSeal(header.Seal())
	if err != nil {
		return err
	}
	// If we're running a fake PoW, accept any seal as valid
	if ethash.config.PowMode == ModeFake {
		if ethash.fakeFail == header.Number() {
			return fmt.Errorf("%w: fake failure at block %d", consensus.ErrInvalidProofOfWork, header.Number())
		}
		return ethash.verifyBasic(header, seal, false)
	}
	return ethash.verifyBasic(header, seal, true)
}

// VerifySeal recomputes the mix digest of the header with the light cache of
// its epoch and compares it to the sealed one.
func (ethash *Ethash) VerifySeal(header *types.Header) error {
	switch ethash.config.PowMode {
	case ModeFullFake:
		return nil
	case ModeFake:
		if ethash.fakeFail == header.Number() {
			return consensus.ErrInvalidMixDigest
		}
		return nil
	}
	seal, err := types.ParseSeal(header.Seal())
	if err != nil {
		return err
	}
	digest, _, err := ethash.sealFor(header.Number(), header.BareHash().Bytes(), seal.Nonce.Uint64())
	if err != nil {
		return err
	}
	if mix := common.BytesToHash(digest); mix != seal.MixHash {
		ethash.logger.WithFields(log.Fields{
			"number": header.Number(),
			"sealed": seal.MixHash,
			"mix":    mix,
		}).Debug("Mix digest mismatch")
		return consensus.ErrInvalidMixDigest
	}
	return nil
}

// Hashimoto runs the light hashimoto loop for a pre-image at the epoch of
// number. Both hashes are zero when the epoch cache is unavailable.
func (ethash *Ethash) Hashimoto(number uint64, bareHash common.Hash, nonce types.BlockNonce) (common.Hash, common.Hash) {
	digest, result, err := ethash.sealFor(number, bareHash[:], nonce.Uint64())
	if err != nil {
		ethash.logger.WithFields(log.Fields{
			"number": number,
			"err":    err,
		}).Error("Failed to compute light hashimoto")
		return common.Hash{}, common.Hash{}
	}
	return common.BytesToHash(digest), common.BytesToHash(result)
}

// HashimotoFull runs the hashimoto loop against the full dataset of the epoch,
// generating it first if needed.
func (ethash *Ethash) HashimotoFull(number uint64, bareHash common.Hash, nonce types.BlockNonce) (common.Hash, common.Hash) {
	dataset := ethash.dataset(number, false)
	digest, result := hashimotoFull(dataset.dataset, bareHash[:], nonce.Uint64())

	// Datasets are unmapped in a finalizer. Ensure that the dataset stays alive
	// until after the call to hashimotoFull so it's not unmapped while being used.
	runtime.KeepAlive(dataset)
	return common.BytesToHash(digest), common.BytesToHash(result)
}
