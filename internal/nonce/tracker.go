// Package nonce provides thread-safe nonce reservation for the accounts of a single chain.
// This is an internal package and should not be imported directly by external code.
package nonce

import (
	"sync"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Tracker reserves nonces for the accounts of one chain.
// It remembers the last nonce handed out per account so that transactions sent
// before the node reports them as pending still get distinct nonces.
type Tracker struct {
	mu sync.Mutex

	// last reserved nonce per account
	reserved map[common.Address]uint64
}

// NewTracker creates a new nonce tracker
func NewTracker() *Tracker {
	return &Tracker{
		reserved: make(map[common.Address]uint64),
	}
}

// setPendingNonceUnlocked records nonce as the last reserved one unless a higher
// nonce is already recorded. MUST be called with the lock held.
func (t *Tracker) setPendingNonceUnlocked(account common.Address, nonce uint64) {
	old, ok := t.reserved[account]
	if ok && old >= nonce {
		logger.WithFields(logger.Fields{
			"account":   account.Hex(),
			"new_nonce": nonce,
			"old_nonce": old,
		}).Debug("setPendingNonce skipped: new nonce not higher than existing")
		return
	}
	t.reserved[account] = nonce
}

// SetPendingNonce records nonce as used by account
func (t *Tracker) SetPendingNonce(account common.Address, nonce uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setPendingNonceUnlocked(account, nonce)
}

// GetPendingNonce returns the next nonce to use for account according to local
// state, and false if nothing is tracked for it.
func (t *Tracker) GetPendingNonce(account common.Address) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.reserved[account]
	if !ok {
		return 0, false
	}
	return last + 1, true
}

// AcquireResult contains the result of a nonce acquisition
type AcquireResult struct {
	Nonce          uint64
	DecisionReason string
}

// AcquireNonce determines and reserves the next nonce for account from the
// node's mined and pending nonces combined with the locally reserved ones.
func (t *Tracker) AcquireNonce(account common.Address, minedNonce, remotePendingNonce uint64) (*AcquireResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, tracked := t.reserved[account]
	localPending := last + 1

	var next uint64
	var reason string

	switch {
	case !tracked:
		if remotePendingNonce > minedNonce {
			next, reason = remotePendingNonce, "first tx, using remote pending (higher than mined)"
		} else {
			next, reason = minedNonce, "first tx, using mined nonce"
		}
	case minedNonce > remotePendingNonce:
		logger.WithFields(logger.Fields{
			"account":        account.Hex(),
			"mined_nonce":    minedNonce,
			"remote_pending": remotePendingNonce,
			"local_pending":  localPending,
		}).Debug("acquireNonce: abnormal state - mined > remote pending")
		return nil, ErrAbnormalNonceState
	case minedNonce == remotePendingNonce:
		if localPending > minedNonce {
			next, reason = localPending, "no pending on node, using local (higher than mined)"
		} else {
			next, reason = minedNonce, "no pending on node, using mined (>= local)"
		}
	default:
		if localPending > remotePendingNonce {
			next, reason = localPending, "pending on node, using local (higher than remote)"
		} else {
			next, reason = remotePendingNonce, "pending on node, using remote (>= local)"
		}
	}

	t.setPendingNonceUnlocked(account, next)

	logger.WithFields(logger.Fields{
		"account":        account.Hex(),
		"acquired_nonce": next,
		"mined_nonce":    minedNonce,
		"remote_pending": remotePendingNonce,
		"decision":       reason,
	}).Debug("acquireNonce: nonce acquired and reserved")

	return &AcquireResult{Nonce: next, DecisionReason: reason}, nil
}

// ReleaseNonce gives back a nonce that was reserved but never sent.
// Only the most recently reserved nonce can be released.
func (t *Tracker) ReleaseNonce(account common.Address, nonce uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.reserved[account]
	if !ok || last != nonce {
		logger.WithFields(logger.Fields{
			"account":         account.Hex(),
			"requested_nonce": nonce,
			"tracked":         ok,
			"current_nonce":   last,
		}).Debug("ReleaseNonce: skipped - not the tip nonce")
		return
	}

	if nonce == 0 {
		delete(t.reserved, account)
	} else {
		t.reserved[account] = nonce - 1
	}
	logger.WithFields(logger.Fields{
		"account":        account.Hex(),
		"released_nonce": nonce,
	}).Debug("ReleaseNonce: nonce released")
}

// Reset forgets every reserved nonce. Call it after the chain state was rewound.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reserved = make(map[common.Address]uint64)
}
