// Package analytics turns a family's raw expense, saving, bill and debt
// records into the monthly summary served by the analytics surface.
//
// The engine is a pure read-side projection: it recomputes the whole
// snapshot on every call, holds no cache and performs no writes. Record
// volume per family is small, so recomputation is cheaper than keeping an
// incremental view consistent.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"hearth/internal/core"
)

// trendMonths is the fixed number of points in the expense trend.
const trendMonths = 6

// billLookaheadDays bounds the upcoming-bills reminder window.
const billLookaheadDays = 10

// RecordSource is the read surface the engine needs from storage. The five
// queries are mutually independent and may be issued concurrently.
type RecordSource interface {
	ExpensesInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Expense, error)
	SavingsInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Saving, error)
	BillsByFamily(ctx context.Context, familyID string) ([]core.Bill, error)
	DebtsByFamily(ctx context.Context, familyID string) ([]core.Debt, error)
	MembersByFamily(ctx context.Context, familyID string) ([]core.User, error)
}

// MemberTotal is one member's share of the month's expenses.
type MemberTotal struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

// TrendPoint is one month of the six-point expense trend.
type TrendPoint struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
}

type DebtSummary struct {
	PendingDebt core.Money `json:"pendingDebt"`
}

// Summary is the aggregate snapshot served to the analytics surface. The
// field set is part of the API contract; clients depend on every key.
type Summary struct {
	TotalMonthlyExpenses core.Money             `json:"totalMonthlyExpenses"`
	TotalMonthlySavings  core.Money             `json:"totalMonthlySavings"`
	CategoryTotals       map[string]core.Money  `json:"categoryTotals"`
	MemberTotals         map[string]MemberTotal `json:"memberTotals"`
	Trend                []TrendPoint           `json:"trend"`
	UpcomingBills        []core.Bill            `json:"upcomingBills"`
	DebtSummary          DebtSummary            `json:"debtSummary"`
}

// Engine computes monthly summaries from a record source.
type Engine struct {
	src RecordSource
}

func NewEngine(src RecordSource) *Engine {
	return &Engine{src: src}
}

// Summarize computes the summary for the given family and month. A zero
// month defaults to the calendar month of now. The expense and saving
// windows are half-open [first of month, first of next month); the trend is
// always anchored to now, independent of the requested month.
func (e *Engine) Summarize(ctx context.Context, familyID string, month Month, now time.Time) (Summary, error) {
	if month.IsZero() {
		month = MonthOf(now)
	}
	winStart := month.Start()
	winEnd := month.Next().Start()

	// The trend covers the current month and the five before it, fetched as
	// one range and bucketed in memory.
	trendStart := MonthOf(now).Shift(-(trendMonths - 1)).Start()
	trendEnd := MonthOf(now).Next().Start()

	var (
		expenses      []core.Expense
		trendExpenses []core.Expense
		savings       []core.Saving
		bills         []core.Bill
		debts         []core.Debt
		members       []core.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = e.src.ExpensesInRange(gctx, familyID, winStart, winEnd)
		return err
	})
	g.Go(func() error {
		var err error
		trendExpenses, err = e.src.ExpensesInRange(gctx, familyID, trendStart, trendEnd)
		return err
	})
	g.Go(func() error {
		var err error
		savings, err = e.src.SavingsInRange(gctx, familyID, winStart, winEnd)
		return err
	})
	g.Go(func() error {
		var err error
		bills, err = e.src.BillsByFamily(gctx, familyID)
		return err
	})
	g.Go(func() error {
		var err error
		debts, err = e.src.DebtsByFamily(gctx, familyID)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = e.src.MembersByFamily(gctx, familyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("load family records: %w", err)
	}

	summary := Summary{
		CategoryTotals: make(map[string]core.Money),
		MemberTotals:   make(map[string]MemberTotal, len(members)),
		Trend:          make([]TrendPoint, 0, trendMonths),
		UpcomingBills:  []core.Bill{},
	}

	// Every current member appears, zero-filled, even with no activity.
	for _, m := range members {
		summary.MemberTotals[m.ID] = MemberTotal{Name: m.Name}
	}

	var total int64
	for _, exp := range expenses {
		total += exp.Amount.Cents

		// Categories are exact-match buckets; no normalization.
		bucket := summary.CategoryTotals[exp.Category]
		bucket.Cents += exp.Amount.Cents
		summary.CategoryTotals[exp.Category] = bucket

		// An expense whose owner no longer resolves to a current member
		// stays in the monthly total but drops out of the breakdown.
		if mt, ok := summary.MemberTotals[exp.UserID]; ok {
			mt.Amount.Cents += exp.Amount.Cents
			summary.MemberTotals[exp.UserID] = mt
		}
	}
	summary.TotalMonthlyExpenses = core.Money{Cents: total}

	var saved int64
	for _, s := range savings {
		saved += s.Amount.Cents
	}
	summary.TotalMonthlySavings = core.Money{Cents: saved}

	summary.Trend = trend(trendExpenses, now)
	summary.UpcomingBills = upcomingBills(bills, now)

	var pending int64
	for _, d := range debts {
		pending += core.NetDebt(d).Pending().Cents
	}
	summary.DebtSummary = DebtSummary{PendingDebt: core.Money{Cents: pending}}

	return summary, nil
}

// trend buckets expenses into the six calendar months ending at now's month,
// oldest first. A month with no expenses yields a zero point, never an
// absent one.
func trend(expenses []core.Expense, now time.Time) []TrendPoint {
	totals := make(map[string]int64, trendMonths)
	for _, exp := range expenses {
		totals[MonthOf(exp.Date).String()] += exp.Amount.Cents
	}
	points := make([]TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		m := MonthOf(now).Shift(-i)
		points = append(points, TrendPoint{
			Month: m.String(),
			Total: core.Money{Cents: totals[m.String()]},
		})
	}
	return points
}

// upcomingBills selects unpaid bills due within [today, today+10 days],
// inclusive of both ends, ordered ascending by due date.
func upcomingBills(bills []core.Bill, now time.Time) []core.Bill {
	today := truncateToDay(now)
	cutoff := today.AddDate(0, 0, billLookaheadDays)

	upcoming := []core.Bill{}
	for _, b := range bills {
		if b.Paid {
			continue
		}
		due := b.DueDate
		if due.Before(today) || due.After(cutoff) {
			continue
		}
		upcoming = append(upcoming, b)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(upcoming[j].DueDate)
	})
	return upcoming
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
