package services

import (
	"errors"
	"sync"
	"testing"
)

func TestLedgerGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	user := createTestUser(t, db, "alice")

	stats, err := ledger.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if stats.Score != 0 || stats.Balance != 0 || stats.Total != 0 {
		t.Errorf("expected zeroed row, got score=%d balance=%d total=%d",
			stats.Score, stats.Balance, stats.Total)
	}

	// Second call must return the same row, not a new one.
	again, err := ledger.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if again.ID != stats.ID {
		t.Errorf("expected the same row id %d, got %d", stats.ID, again.ID)
	}
}

func TestLedgerGetOrCreateUnknownUser(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	if _, err := ledger.GetOrCreate(999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLedgerApplyDelta(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	user := createTestUser(t, db, "bob")

	stats, err := ledger.ApplyDelta(user.ID, StatsDelta{Score: 5})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if stats.Score != 5 {
		t.Errorf("expected score 5, got %d", stats.Score)
	}

	// Quiz penalties may drive the score below zero.
	stats, err = ledger.ApplyDelta(user.ID, StatsDelta{Score: -8})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if stats.Score != -3 {
		t.Errorf("expected score -3, got %d", stats.Score)
	}
}

func TestGuardedDeltaAtMostOneSucceeds(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	user := createTestUser(t, db, "carol")

	if _, err := ledger.ApplyDelta(user.ID, StatsDelta{Balance: 100}); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	// Two concurrent withdrawals of the full balance: the guard predicate
	// must let exactly one through.
	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := applyGuardedDelta(db, user.ID, StatsDelta{Balance: -100, Total: 100}, "balance", 100)
			if err != nil {
				t.Errorf("guarded delta error: %v", err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 withdrawal to succeed, got %d", succeeded)
	}

	stats, err := loadStats(db, user.ID)
	if err != nil {
		t.Fatalf("loadStats failed: %v", err)
	}
	if stats.Balance != 0 || stats.Total != 100 {
		t.Errorf("expected balance=0 total=100, got balance=%d total=%d",
			stats.Balance, stats.Total)
	}
}
