package params

import (
	"fmt"
	"math"
	"math/big"
)

// EthNetwork identifies the Ethereum PoW network whose headers are relayed.
// Every id other than Ropsten selects the production rules.
type EthNetwork uint64

const (
	Production EthNetwork = 0
	Ropsten    EthNetwork = 1
)

const (
	// MinimumDifficulty is the floor every relayed header must meet.
	MinimumDifficulty = 131072

	// ExpDiffPeriod is the difficulty bomb period, in blocks.
	ExpDiffPeriod = 100000

	DefaultNumberOfBlocksFinality = 30
	DefaultNumberOfBlocksSafe     = 10
)

func (n EthNetwork) String() string {
	switch n {
	case Production:
		return "production"
	case Ropsten:
		return "ropsten"
	default:
		return fmt.Sprintf("production(%d)", uint64(n))
	}
}

// EthashParams returns a fresh copy of the difficulty constant set used by
// the network. Unknown ids fall back to production.
func (n EthNetwork) EthashParams() *EthashParams {
	switch n {
	case Ropsten:
		return RopstenEthashParams()
	default:
		return ProductionEthashParams()
	}
}

// EthashParamsByName returns a fresh copy of a named constant set. The empty
// name returns nil, leaving the choice to the network id.
func EthashParamsByName(name string) (*EthashParams, error) {
	switch name {
	case "":
		return nil, nil
	case "production":
		return ProductionEthashParams(), nil
	case "ropsten":
		return RopstenEthashParams(), nil
	case "expanse":
		return ExpanseEthashParams(), nil
	default:
		return nil, fmt.Errorf("unknown ethash rules %q", name)
	}
}

// EthashParams holds the network dependent constants of the ethash difficulty
// adjustment and the seal checks the relay performs.
type EthashParams struct {
	MinimumDifficulty *big.Int

	DifficultyBoundDivisor         *big.Int
	DifficultyHardforkTransition   uint64
	DifficultyHardforkBoundDivisor *big.Int

	DifficultyIncrementDivisor           uint64
	MetropolisDifficultyIncrementDivisor uint64

	DurationLimit       uint64
	Expip2Transition    uint64
	Expip2DurationLimit uint64

	HomesteadTransition uint64
	Eip100bTransition   uint64

	BombDefuseTransition       uint64
	Ecip1010PauseTransition    uint64
	Ecip1010ContinueTransition uint64

	// DifficultyBombDelays maps an activation block to the number of blocks
	// the bomb is pushed back from that block on. Delays accumulate.
	DifficultyBombDelays map[uint64]uint64

	// RequiresMixHashCheck enables the full hashimoto verification of the
	// sealed mix hash. Ropsten headers are relayed without it.
	RequiresMixHashCheck bool
}

// SetDifficultyBombDelays inserts or overrides the bomb delay activated at block.
func (p *EthashParams) SetDifficultyBombDelays(block, delay uint64) {
	if p.DifficultyBombDelays == nil {
		p.DifficultyBombDelays = make(map[uint64]uint64)
	}
	p.DifficultyBombDelays[block] = delay
}

// ProductionEthashParams are the Ethereum mainnet constants up to Muir Glacier.
func ProductionEthashParams() *EthashParams {
	return &EthashParams{
		MinimumDifficulty:                    big.NewInt(MinimumDifficulty),
		DifficultyBoundDivisor:               big.NewInt(0x0800),
		DifficultyHardforkTransition:         math.MaxUint64,
		DifficultyHardforkBoundDivisor:       big.NewInt(0x0800),
		DifficultyIncrementDivisor:           10,
		MetropolisDifficultyIncrementDivisor: 9,
		DurationLimit:                        13,
		Expip2Transition:                     math.MaxUint64,
		Expip2DurationLimit:                  30,
		HomesteadTransition:                  1150000,
		Eip100bTransition:                    4370000,
		BombDefuseTransition:                 math.MaxUint64,
		Ecip1010PauseTransition:              math.MaxUint64,
		Ecip1010ContinueTransition:           math.MaxUint64,
		DifficultyBombDelays: map[uint64]uint64{
			4370000: 3000000, // Byzantium
			7280000: 2000000, // Constantinople
			9200000: 4000000, // Muir Glacier
		},
		RequiresMixHashCheck: true,
	}
}

// RopstenEthashParams are the Ropsten testnet constants.
func RopstenEthashParams() *EthashParams {
	p := ProductionEthashParams()
	p.HomesteadTransition = 0
	p.Eip100bTransition = 1700000
	p.DifficultyBombDelays = map[uint64]uint64{
		1700000: 3000000,
		4230000: 2000000,
		7117117: 4000000,
	}
	p.RequiresMixHashCheck = false
	return p
}

// ExpanseEthashParams are the Expanse constants. No network id selects them;
// they are reached by name or through an explicit constant set.
func ExpanseEthashParams() *EthashParams {
	return &EthashParams{
		MinimumDifficulty:                    big.NewInt(MinimumDifficulty),
		DifficultyBoundDivisor:               big.NewInt(0x0800),
		DifficultyHardforkTransition:         0x59d9,
		DifficultyHardforkBoundDivisor:       big.NewInt(0x0200),
		DifficultyIncrementDivisor:           0x3c,
		MetropolisDifficultyIncrementDivisor: 0x1e,
		DurationLimit:                        0x3c,
		Expip2Transition:                     0xc3500,
		Expip2DurationLimit:                  0x1e,
		HomesteadTransition:                  0x30d40,
		Eip100bTransition:                    0xc3500,
		BombDefuseTransition:                 0x30d40,
		Ecip1010PauseTransition:              0x2dc6c0,
		Ecip1010ContinueTransition:           0x4c4b40,
		DifficultyBombDelays: map[uint64]uint64{
			0xc3500: 3000000,
		},
		RequiresMixHashCheck: true,
	}
}
