// Package storage persists family-scoped records. The SQLite repository is
// the production backend; the in-memory store backs development and tests.
//
// Every record lookup is family-scope-aware: a record that exists in another
// family is indistinguishable from one that does not exist at all.
package storage

import (
	"context"
	"errors"
	"time"

	"hearth/internal/core"
)

// ErrNotFound is returned when a record does not resolve within the given
// family scope.
var ErrNotFound = errors.New("record not found")

// ErrEmailTaken is returned when creating a user with an email that is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// Store is the record-store surface the rest of the system consumes. Create
// calls populate the record's ID and timestamps when absent.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateFamily(ctx context.Context, f *core.Family) error
	GetFamily(ctx context.Context, id string) (*core.Family, error)

	CreateUser(ctx context.Context, u *core.User) error
	GetUserByID(ctx context.Context, id string) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetMember(ctx context.Context, familyID, id string) (*core.User, error)
	MembersByFamily(ctx context.Context, familyID string) ([]core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
	UpdateCapabilities(ctx context.Context, familyID, id string, caps core.CapabilitySet) error
	DeleteUser(ctx context.Context, familyID, id string) error

	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, familyID, id string) (*core.Expense, error)
	// ListExpenses returns the family's expenses, date descending. A
	// non-empty ownerID narrows the result to that member's records.
	ListExpenses(ctx context.Context, familyID, ownerID string) ([]core.Expense, error)
	// ExpensesInRange returns expenses with from <= date < to.
	ExpensesInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, familyID, id string) error

	CreateSaving(ctx context.Context, s *core.Saving) error
	GetSaving(ctx context.Context, familyID, id string) (*core.Saving, error)
	ListSavings(ctx context.Context, familyID, ownerID string) ([]core.Saving, error)
	SavingsInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Saving, error)
	UpdateSaving(ctx context.Context, s *core.Saving) error
	DeleteSaving(ctx context.Context, familyID, id string) error

	CreateBill(ctx context.Context, b *core.Bill) error
	GetBill(ctx context.Context, familyID, id string) (*core.Bill, error)
	// BillsByFamily returns the family's bills, due date ascending.
	BillsByFamily(ctx context.Context, familyID string) ([]core.Bill, error)
	// MarkBillPaid sets the paid flag and the paid-on timestamp. Re-marking
	// an already-paid bill just resets paid-on.
	MarkBillPaid(ctx context.Context, familyID, id string, paidOn time.Time) (*core.Bill, error)
	DeleteBill(ctx context.Context, familyID, id string) error

	CreateDebt(ctx context.Context, d *core.Debt) error
	GetDebt(ctx context.Context, familyID, id string) (*core.Debt, error)
	// DebtsByFamily returns the family's debts, due date ascending with
	// undated debts last.
	DebtsByFamily(ctx context.Context, familyID string) ([]core.Debt, error)
	// AppendRepayment adds one entry to the debt's ledger. The ledger is
	// append-only; no update or remove operation exists.
	AppendRepayment(ctx context.Context, familyID, debtID string, r core.Repayment) (*core.Debt, error)
	MarkDebtRepaid(ctx context.Context, familyID, id string) (*core.Debt, error)
	DeleteDebt(ctx context.Context, familyID, id string) error
}
