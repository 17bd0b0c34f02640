package relay

import (
	"math/big"

	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// SetGenesisHeaderEvent is posted when the genesis header is reset.
type SetGenesisHeaderEvent struct {
	Origin     Origin
	Header     *types.Header
	Difficulty *big.Int
}

// RelayHeaderEvent is posted for every header accepted by the relay.
type RelayHeaderEvent struct {
	Origin Origin
	Header *types.Header
	// Best is set when the header became the new best header.
	Best bool
	// Reorged is the number of canonical heights that changed their hash.
	Reorged int
}

// VerifyProofEvent is posted when a receipt is checked on behalf of a caller.
type VerifyProofEvent struct {
	Origin  Origin
	Receipt *types.Receipt
	Proof   *types.ReceiptProof
}

// AdminKind tells which setting an AdminEvent changed.
type AdminKind int

const (
	AddAuthority AdminKind = iota
	RemoveAuthority
	ToggleCheckAuthorities
	SetNumberOfBlocksFinality
	SetNumberOfBlocksSafe
)

func (k AdminKind) String() string {
	switch k {
	case AddAuthority:
		return "AddAuthority"
	case RemoveAuthority:
		return "RemoveAuthority"
	case ToggleCheckAuthorities:
		return "ToggleCheckAuthorities"
	case SetNumberOfBlocksFinality:
		return "SetNumberOfBlocksFinality"
	case SetNumberOfBlocksSafe:
		return "SetNumberOfBlocksSafe"
	default:
		return "Unknown"
	}
}

// AdminEvent is posted when a root call changes the relay settings.
type AdminEvent struct {
	Kind      AdminKind
	Authority common.Address
	Enabled   bool
	Value     uint64
}
