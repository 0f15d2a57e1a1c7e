package nonce

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()
	if tracker == nil {
		t.Fatal("expected non-nil tracker")
	}
}

func TestTracker_GetSetPendingNonce(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x1234567890123456789012345678901234567890")

	if _, ok := tracker.GetPendingNonce(account); ok {
		t.Error("expected no local nonce for new account")
	}

	tracker.SetPendingNonce(account, 5)

	nonce, ok := tracker.GetPendingNonce(account)
	if !ok {
		t.Fatal("expected local nonce after set")
	}
	if nonce != 6 {
		t.Errorf("expected nonce 6, got %d", nonce)
	}
}

func TestTracker_SetPendingNonceSkipsLowerNonce(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x1234567890123456789012345678901234567890")

	tracker.SetPendingNonce(account, 10)
	tracker.SetPendingNonce(account, 5)

	nonce, _ := tracker.GetPendingNonce(account)
	if nonce != 11 {
		t.Errorf("expected nonce 11 (10+1), got %d", nonce)
	}
}

func TestTracker_AcquireNonce_FirstTransaction(t *testing.T) {
	t.Run("uses mined nonce when higher", func(t *testing.T) {
		tracker := NewTracker()
		account := common.HexToAddress("0x1234567890123456789012345678901234567890")
		result, err := tracker.AcquireNonce(account, 10, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Nonce != 10 {
			t.Errorf("expected nonce 10, got %d", result.Nonce)
		}
	})

	t.Run("uses remote pending when higher", func(t *testing.T) {
		tracker := NewTracker()
		account := common.HexToAddress("0x2234567890123456789012345678901234567890")
		result, err := tracker.AcquireNonce(account, 5, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Nonce != 10 {
			t.Errorf("expected nonce 10, got %d", result.Nonce)
		}
	})
}

func TestTracker_AcquireNonce_Sequential(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x3234567890123456789012345678901234567890")

	// node hasn't seen any of our transactions yet
	for want := uint64(0); want < 3; want++ {
		result, err := tracker.AcquireNonce(account, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Nonce != want {
			t.Errorf("expected nonce %d, got %d", want, result.Nonce)
		}
	}

	// node caught up and mined them
	result, err := tracker.AcquireNonce(account, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Nonce != 3 {
		t.Errorf("expected nonce 3, got %d", result.Nonce)
	}
}

func TestTracker_AcquireNonce_AbnormalState(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x3234567890123456789012345678901234567890")

	tracker.SetPendingNonce(account, 5)

	_, err := tracker.AcquireNonce(account, 10, 5)
	if err != ErrAbnormalNonceState {
		t.Errorf("expected ErrAbnormalNonceState, got %v", err)
	}
}

func TestTracker_ReleaseNonce(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x4234567890123456789012345678901234567890")

	t.Run("releases tip nonce", func(t *testing.T) {
		tracker.SetPendingNonce(account, 5)
		tracker.ReleaseNonce(account, 5)

		nonce, _ := tracker.GetPendingNonce(account)
		if nonce != 5 {
			t.Errorf("expected nonce 5 after release, got %d", nonce)
		}
	})

	t.Run("skips non-tip nonce", func(t *testing.T) {
		tracker.SetPendingNonce(account, 10)
		tracker.ReleaseNonce(account, 5)

		nonce, _ := tracker.GetPendingNonce(account)
		if nonce != 11 {
			t.Errorf("expected nonce 11, got %d", nonce)
		}
	})

	t.Run("handles nonce zero", func(t *testing.T) {
		account2 := common.HexToAddress("0x5234567890123456789012345678901234567890")
		tracker.SetPendingNonce(account2, 0)
		tracker.ReleaseNonce(account2, 0)

		if _, ok := tracker.GetPendingNonce(account2); ok {
			t.Error("expected no local nonce after releasing 0")
		}
	})
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x6234567890123456789012345678901234567890")

	tracker.SetPendingNonce(account, 7)
	tracker.Reset()

	if _, ok := tracker.GetPendingNonce(account); ok {
		t.Error("expected no local nonce after reset")
	}

	// after a rewind the node's nonce wins again
	result, err := tracker.AcquireNonce(account, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Nonce != 2 {
		t.Errorf("expected nonce 2, got %d", result.Nonce)
	}
}

func TestTracker_MultipleAccounts(t *testing.T) {
	tracker := NewTracker()
	account1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	account2 := common.HexToAddress("0x2222222222222222222222222222222222222222")

	tracker.SetPendingNonce(account1, 10)
	tracker.SetPendingNonce(account2, 20)

	nonce1, _ := tracker.GetPendingNonce(account1)
	nonce2, _ := tracker.GetPendingNonce(account2)

	if nonce1 != 11 {
		t.Errorf("account1: expected nonce 11, got %d", nonce1)
	}
	if nonce2 != 21 {
		t.Errorf("account2: expected nonce 21, got %d", nonce2)
	}
}

func TestTracker_ConcurrentAcquiresAreDistinct(t *testing.T) {
	tracker := NewTracker()
	account := common.HexToAddress("0x1234567890123456789012345678901234567890")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := tracker.AcquireNonce(account, 0, 0)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[result.Nonce] {
				t.Errorf("nonce %d handed out twice", result.Nonce)
			}
			seen[result.Nonce] = true
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("expected 50 distinct nonces, got %d", len(seen))
	}
}
