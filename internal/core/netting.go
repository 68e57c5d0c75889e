package core

// DebtBalance is the result of netting a debt's ledger against its principal.
type DebtBalance struct {
	// Paid is the sum of all ledger entry amounts.
	Paid Money
	// Remaining is principal minus Paid. It goes negative on overpayment;
	// use Pending for the clamped aggregate contribution.
	Remaining Money
}

// Pending returns the strictly-positive outstanding balance, or zero. An
// overpaid debt contributes zero to the family aggregate, never a negative
// adjustment.
func (b DebtBalance) Pending() Money {
	if b.Remaining.Cents <= 0 {
		return Money{}
	}
	return b.Remaining
}

// NetDebt folds a debt's cumulative partial repayments into the amount paid
// and the amount remaining. The fold is order-independent and has no failure
// modes: an empty ledger nets to paid 0, remaining = principal. The debt's
// manual repaid flag is deliberately ignored here; the ledger sum is the
// source of truth.
func NetDebt(d Debt) DebtBalance {
	var paid int64
	for _, entry := range d.Ledger {
		paid += entry.Amount.Cents
	}
	return DebtBalance{
		Paid:      Money{Cents: paid},
		Remaining: Money{Cents: d.Amount.Cents - paid},
	}
}
