package core

import "testing"

func debtWith(principal int64, repayments ...int64) Debt {
	d := Debt{Amount: Money{Cents: principal}}
	for _, cents := range repayments {
		d.Ledger = append(d.Ledger, Repayment{Amount: Money{Cents: cents}})
	}
	return d
}

func TestNetDebt(t *testing.T) {
	cases := []struct {
		name          string
		debt          Debt
		paid          int64
		remaining     int64
		pending       int64
	}{
		{"empty ledger", debtWith(100000), 0, 100000, 100000},
		{"partial repayments", debtWith(100000, 40000, 35000), 75000, 25000, 25000},
		{"exactly settled", debtWith(50000, 20000, 30000), 50000, 0, 0},
		{"overpaid", debtWith(50000, 60000), 60000, -10000, 0},
		{"single entry", debtWith(1000, 999), 999, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NetDebt(tc.debt)
			if b.Paid.Cents != tc.paid {
				t.Errorf("Paid = %d, want %d", b.Paid.Cents, tc.paid)
			}
			if b.Remaining.Cents != tc.remaining {
				t.Errorf("Remaining = %d, want %d", b.Remaining.Cents, tc.remaining)
			}
			if b.Pending().Cents != tc.pending {
				t.Errorf("Pending = %d, want %d", b.Pending().Cents, tc.pending)
			}
		})
	}
}

// The manual repaid flag never feeds the netting computation.
func TestNetDebtIgnoresRepaidFlag(t *testing.T) {
	d := debtWith(100000, 40000)
	d.Repaid = true

	b := NetDebt(d)
	if b.Remaining.Cents != 60000 {
		t.Fatalf("Remaining = %d, want 60000", b.Remaining.Cents)
	}
	if b.Pending().Cents != 60000 {
		t.Fatalf("Pending = %d, want 60000", b.Pending().Cents)
	}
}

func TestNetDebtOrderIndependent(t *testing.T) {
	a := NetDebt(debtWith(100000, 40000, 35000, 5000))
	b := NetDebt(debtWith(100000, 5000, 35000, 40000))
	if a != b {
		t.Fatalf("netting depends on ledger order: %+v vs %+v", a, b)
	}
}
