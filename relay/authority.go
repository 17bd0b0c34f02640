package relay

import (
	"bytes"
	"sort"

	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ensureAuthority admits root, and signed callers when authorities are not
// checked or the caller is one. Callers hold r.mu.
func (r *Relay) ensureAuthority(origin Origin) error {
	if origin.IsRoot() {
		return nil
	}
	account, signed := origin.Account()
	if !signed {
		return ErrBadOrigin
	}
	if r.checkAuthorities && !r.authorities.Contains(account) {
		return errors.Wrap(ErrAccountNP, account.Hex())
	}
	return nil
}

// CheckAuthorities reports whether gated calls are restricted to authorities.
func (r *Relay) CheckAuthorities() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkAuthorities
}

// IsAuthority reports whether account is in the authority set.
func (r *Relay) IsAuthority(account common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.authorities.Contains(account)
}

// Authorities returns the authority set sorted by address.
func (r *Relay) Authorities() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addrs := make([]common.Address, 0, r.authorities.Cardinality())
	r.authorities.Each(func(item interface{}) bool {
		addrs = append(addrs, item.(common.Address))
		return false
	})
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// AddAuthority adds account to the authority set.
func (r *Relay) AddAuthority(origin Origin, account common.Address) error {
	return r.admin(origin, AdminEvent{Kind: AddAuthority, Authority: account}, func(ev *AdminEvent) {
		if r.authorities.Add(account) {
			rawdb.WriteAuthority(r.db, account)
		}
	})
}

// RemoveAuthority removes account from the authority set.
func (r *Relay) RemoveAuthority(origin Origin, account common.Address) error {
	return r.admin(origin, AdminEvent{Kind: RemoveAuthority, Authority: account}, func(ev *AdminEvent) {
		if r.authorities.Contains(account) {
			r.authorities.Remove(account)
			rawdb.DeleteAuthority(r.db, account)
		}
	})
}

// ToggleCheckAuthorities flips whether gated calls are restricted.
func (r *Relay) ToggleCheckAuthorities(origin Origin) error {
	return r.admin(origin, AdminEvent{Kind: ToggleCheckAuthorities}, func(ev *AdminEvent) {
		r.checkAuthorities = !r.checkAuthorities
		rawdb.WriteCheckAuthorities(r.db, r.checkAuthorities)
		ev.Enabled = r.checkAuthorities
	})
}

// SetNumberOfBlocksFinality sets the depth past which headers are too old.
func (r *Relay) SetNumberOfBlocksFinality(origin Origin, n uint64) error {
	return r.admin(origin, AdminEvent{Kind: SetNumberOfBlocksFinality, Value: n}, func(ev *AdminEvent) {
		r.finality = n
		rawdb.WriteNumberOfBlocksFinality(r.db, n)
	})
}

// SetNumberOfBlocksSafe sets the confirmations required by receipt checks.
func (r *Relay) SetNumberOfBlocksSafe(origin Origin, n uint64) error {
	return r.admin(origin, AdminEvent{Kind: SetNumberOfBlocksSafe, Value: n}, func(ev *AdminEvent) {
		r.safe = n
		rawdb.WriteNumberOfBlocksSafe(r.db, n)
	})
}

// admin runs a root only settings change and posts its event.
func (r *Relay) admin(origin Origin, ev AdminEvent, apply func(ev *AdminEvent)) error {
	if !origin.IsRoot() {
		return ErrBadOrigin
	}
	r.mu.Lock()
	apply(&ev)
	r.mu.Unlock()

	r.logger.WithFields(log.Fields{
		"kind":      ev.Kind,
		"authority": ev.Authority,
		"enabled":   ev.Enabled,
		"value":     ev.Value,
	}).Info("Updated relay settings")
	r.adminFeed.Send(ev)
	return nil
}
