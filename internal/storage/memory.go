package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hearth/internal/core"
)

// Memory is an in-memory Store used as the development backend and as the
// test double for handler and engine tests. It mirrors the SQLite
// repository's semantics, including family-scope-aware lookups.
type Memory struct {
	mu       sync.RWMutex
	families map[string]core.Family
	users    map[string]core.User
	expenses map[string]core.Expense
	savings  map[string]core.Saving
	bills    map[string]core.Bill
	debts    map[string]core.Debt
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		families: make(map[string]core.Family),
		users:    make(map[string]core.User),
		expenses: make(map[string]core.Expense),
		savings:  make(map[string]core.Saving),
		bills:    make(map[string]core.Bill),
		debts:    make(map[string]core.Debt),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

func (m *Memory) CreateFamily(_ context.Context, f *core.Family) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	m.families[f.ID] = *f
	return nil
}

func (m *Memory) GetFamily(_ context.Context, id string) (*core.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.families[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) CreateUser(_ context.Context, u *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Capabilities = u.Capabilities.Normalized()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Capabilities = u.Capabilities.Normalized()
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u.Capabilities = u.Capabilities.Normalized()
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetMember(_ context.Context, familyID, id string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok || u.FamilyID != familyID {
		return nil, ErrNotFound
	}
	u.Capabilities = u.Capabilities.Normalized()
	return &u, nil
}

func (m *Memory) MembersByFamily(_ context.Context, familyID string) ([]core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var members []core.User
	for _, u := range m.users {
		if u.FamilyID == familyID {
			u.Capabilities = u.Capabilities.Normalized()
			members = append(members, u)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[u.ID]
	if !ok || existing.FamilyID != u.FamilyID {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now().UTC()
	u.Capabilities = u.Capabilities.Normalized()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UpdateCapabilities(_ context.Context, familyID, id string, caps core.CapabilitySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.FamilyID != familyID {
		return ErrNotFound
	}
	u.Capabilities = caps.Normalized()
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, familyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.FamilyID != familyID {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateExpense(_ context.Context, e *core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	m.expenses[e.ID] = *e
	return nil
}

func (m *Memory) GetExpense(_ context.Context, familyID, id string) (*core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.expenses[id]
	if !ok || e.FamilyID != familyID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListExpenses(_ context.Context, familyID, ownerID string) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if e.FamilyID != familyID {
			continue
		}
		if ownerID != "" && e.UserID != ownerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ExpensesInRange(_ context.Context, familyID string, from, to time.Time) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if e.FamilyID != familyID {
			continue
		}
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateExpense(_ context.Context, e *core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[e.ID]
	if !ok || existing.FamilyID != e.FamilyID {
		return ErrNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	m.expenses[e.ID] = *e
	return nil
}

func (m *Memory) DeleteExpense(_ context.Context, familyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.FamilyID != familyID {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *Memory) CreateSaving(_ context.Context, s *core.Saving) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.savings[s.ID] = *s
	return nil
}

func (m *Memory) GetSaving(_ context.Context, familyID, id string) (*core.Saving, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.savings[id]
	if !ok || s.FamilyID != familyID {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) ListSavings(_ context.Context, familyID, ownerID string) ([]core.Saving, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Saving
	for _, s := range m.savings {
		if s.FamilyID != familyID {
			continue
		}
		if ownerID != "" && s.UserID != ownerID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) SavingsInRange(_ context.Context, familyID string, from, to time.Time) ([]core.Saving, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Saving
	for _, s := range m.savings {
		if s.FamilyID != familyID {
			continue
		}
		if s.Date.Before(from) || !s.Date.Before(to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateSaving(_ context.Context, s *core.Saving) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.savings[s.ID]
	if !ok || existing.FamilyID != s.FamilyID {
		return ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.savings[s.ID] = *s
	return nil
}

func (m *Memory) DeleteSaving(_ context.Context, familyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.savings[id]
	if !ok || s.FamilyID != familyID {
		return ErrNotFound
	}
	delete(m.savings, id)
	return nil
}

func (m *Memory) CreateBill(_ context.Context, b *core.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bills[b.ID] = *b
	return nil
}

func (m *Memory) GetBill(_ context.Context, familyID, id string) (*core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	if !ok || b.FamilyID != familyID {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) BillsByFamily(_ context.Context, familyID string) ([]core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Bill
	for _, b := range m.bills {
		if b.FamilyID == familyID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) MarkBillPaid(_ context.Context, familyID, id string, paidOn time.Time) (*core.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok || b.FamilyID != familyID {
		return nil, ErrNotFound
	}
	b.Paid = true
	paidOn = paidOn.UTC()
	b.PaidOn = &paidOn
	m.bills[id] = b
	return &b, nil
}

func (m *Memory) DeleteBill(_ context.Context, familyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok || b.FamilyID != familyID {
		return ErrNotFound
	}
	delete(m.bills, id)
	return nil
}

func (m *Memory) CreateDebt(_ context.Context, d *core.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	d.Ledger = append([]core.Repayment(nil), d.Ledger...)
	m.debts[d.ID] = *d
	return nil
}

func (m *Memory) GetDebt(_ context.Context, familyID, id string) (*core.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.debts[id]
	if !ok || d.FamilyID != familyID {
		return nil, ErrNotFound
	}
	d.Ledger = append([]core.Repayment(nil), d.Ledger...)
	return &d, nil
}

func (m *Memory) DebtsByFamily(_ context.Context, familyID string) ([]core.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Debt
	for _, d := range m.debts {
		if d.FamilyID == familyID {
			d.Ledger = append([]core.Repayment(nil), d.Ledger...)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di == nil && dj == nil:
			return out[i].ID < out[j].ID
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AppendRepayment(_ context.Context, familyID, debtID string, entry core.Repayment) (*core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debts[debtID]
	if !ok || d.FamilyID != familyID {
		return nil, ErrNotFound
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	d.Ledger = append(append([]core.Repayment(nil), d.Ledger...), entry)
	m.debts[debtID] = d
	out := d
	out.Ledger = append([]core.Repayment(nil), d.Ledger...)
	return &out, nil
}

func (m *Memory) MarkDebtRepaid(_ context.Context, familyID, id string) (*core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debts[id]
	if !ok || d.FamilyID != familyID {
		return nil, ErrNotFound
	}
	d.Repaid = true
	m.debts[id] = d
	out := d
	out.Ledger = append([]core.Repayment(nil), d.Ledger...)
	return &out, nil
}

func (m *Memory) DeleteDebt(_ context.Context, familyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debts[id]
	if !ok || d.FamilyID != familyID {
		return ErrNotFound
	}
	delete(m.debts, id)
	return nil
}
