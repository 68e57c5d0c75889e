package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"hearth/internal/core"
)

func TestMemoryFamilyScoping(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	fam := &core.Family{Name: "Rossi"}
	if err := m.CreateFamily(ctx, fam); err != nil {
		t.Fatalf("create family: %v", err)
	}

	e := &core.Expense{FamilyID: fam.ID, UserID: "u1", Amount: core.Money{Cents: 100},
		Category: "c", Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	if err := m.CreateExpense(ctx, e); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if _, err := m.GetExpense(ctx, fam.ID, e.ID); err != nil {
		t.Fatalf("same-family lookup: %v", err)
	}
	if _, err := m.GetExpense(ctx, "other", e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-family lookup: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryDuplicateEmailCaseInsensitive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := &core.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h",
		Role: core.RoleAdmin, FamilyID: "fam"}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := &core.User{Name: "Dup", Email: "ANA@example.com", PasswordHash: "h",
		Role: core.RoleChild, FamilyID: "fam"}
	if err := m.CreateUser(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

// Returned ledgers are copies; mutating a result must not leak back into the
// stored debt.
func TestMemoryDebtLedgerIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	d := &core.Debt{FamilyID: "fam", From: "a", To: "b", Amount: core.Money{Cents: 1000}}
	if err := m.CreateDebt(ctx, d); err != nil {
		t.Fatalf("create debt: %v", err)
	}

	got, err := m.AppendRepayment(ctx, "fam", d.ID, core.Repayment{Amount: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	got.Ledger[0].Amount.Cents = 999999

	fresh, err := m.GetDebt(ctx, "fam", d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.Ledger[0].Amount.Cents != 100 {
		t.Fatalf("stored ledger mutated: %d", fresh.Ledger[0].Amount.Cents)
	}
}
