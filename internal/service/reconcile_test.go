package service

import (
	"context"
	"testing"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/repository/memory"
)

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	n := &fakeNotifier{}
	s := newTestService(t, store, WithNotifier(n))
	alice := registerUser(t, s, "alice")
	bob := registerUser(t, s, "bob")
	salary := createCategory(t, s, alice.ID, "Salary", models.Income)
	if _, err := s.CreateTransaction(ctx, alice.ID, TransactionInput{Amount: dec("300"), Type: models.Income,
		CategoryID: salary.ID, Description: "pay"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	drifts, err := s.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 0 || len(n.drifts) != 0 {
		t.Fatalf("consistent ledger reported drift: %+v", drifts)
	}

	// corrupt the stored balance behind the ledger's back
	err = store.WithLedgerTx(ctx, alice.ID, func(tx repository.LedgerTx) error {
		return tx.SetBalance(ctx, alice.ID, dec("42"))
	})
	if err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	drifts, err = s.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 1 || drifts[0].UserID != alice.ID || drifts[0].Repaired {
		t.Fatalf("unexpected drifts %+v", drifts)
	}
	if !drifts[0].Stored.Equal(dec("42")) || !drifts[0].Computed.Equal(dec("300")) {
		t.Fatalf("unexpected drift values %+v", drifts[0])
	}
	if b := balanceOf(t, s, alice.ID); !b.Equal(dec("42")) {
		t.Fatalf("report-only run changed balance to %s", b)
	}
	if len(n.drifts) != 1 {
		t.Fatalf("alert not sent")
	}

	drifts, err = s.Reconcile(ctx, true)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if len(drifts) != 1 || !drifts[0].Repaired {
		t.Fatalf("unexpected drifts %+v", drifts)
	}
	assertInvariant(t, s, alice.ID)
	assertInvariant(t, s, bob.ID)

	drifts, err = s.Reconcile(ctx, false)
	if err != nil || len(drifts) != 0 {
		t.Fatalf("after repair: drifts %+v err %v", drifts, err)
	}
}

func TestStartReconcilerRejectsBadSchedule(t *testing.T) {
	s := newTestService(t, nil)
	if _, err := s.StartReconciler(context.Background(), "not a schedule", false); err == nil {
		t.Fatal("expected schedule error")
	}
	c, err := s.StartReconciler(context.Background(), "@every 1h", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Stop()
}
