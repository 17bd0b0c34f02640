package relay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Origin is the caller of a relay operation. The zero Origin is unsigned.
type Origin struct {
	root    bool
	signed  bool
	account common.Address
}

// Root is the privileged origin admin calls require.
func Root() Origin {
	return Origin{root: true}
}

// Signed is an origin acting on behalf of account.
func Signed(account common.Address) Origin {
	return Origin{signed: true, account: account}
}

// IsRoot reports whether the origin is privileged.
func (o Origin) IsRoot() bool { return o.root }

// Account returns the signing account and whether there is one.
func (o Origin) Account() (common.Address, bool) { return o.account, o.signed }

func (o Origin) String() string {
	switch {
	case o.root:
		return "root"
	case o.signed:
		return fmt.Sprintf("signed(%s)", o.account.Hex())
	default:
		return "none"
	}
}
