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

package consensus

import (
	"errors"

	"github.com/dominant-strategies/go-ethrelay/core/types"
)

var (
	// ErrInvalidSealArity is returned when a header does not carry exactly a
	// mix hash and a nonce as seal.
	ErrInvalidSealArity = types.ErrInvalidSealArity

	// ErrSealRlpDecode is returned when a seal item cannot be decoded.
	ErrSealRlpDecode = types.ErrSealRlp

	// ErrDifficultyOutOfBounds is returned when the claimed difficulty is below
	// the network minimum.
	ErrDifficultyOutOfBounds = errors.New("difficulty out of bounds")

	// ErrInvalidProofOfWork is returned when the sealed mix hash and nonce do
	// not meet the claimed difficulty.
	ErrInvalidProofOfWork = errors.New("invalid proof-of-work")

	// ErrInvalidMixDigest is returned when the recomputed mix digest differs
	// from the sealed one.
	ErrInvalidMixDigest = errors.New("invalid mix digest")

	// ErrCacheUnavailable is returned when the verification cache of an epoch
	// could not be generated.
	ErrCacheUnavailable = errors.New("ethash cache unavailable")
)
