package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hearth/internal/core"
)

const debtColumns = "id, family_id, from_party, to_party, amount_cents, purpose, due_date, repaid, created_by, created_at"

func (r *Repository) CreateDebt(ctx context.Context, d *core.Debt) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO debts ("+debtColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		d.ID, d.FamilyID, d.From, d.To, d.Amount.Cents, d.Purpose,
		nullTS(d.DueDate), boolToInt(d.Repaid), d.CreatedBy, ts(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert debt: %w", err)
	}

	for _, entry := range d.Ledger {
		if err := insertRepayment(ctx, tx, d.ID, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetDebt(ctx context.Context, familyID, id string) (*core.Debt, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	d, err := scanDebt(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get debt: %w", err)
	}
	if d.Ledger, err = r.loadLedger(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) DebtsByFamily(ctx context.Context, familyID string) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE family_id = ? ORDER BY due_date IS NULL, due_date, id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}

	for i := range debts {
		if debts[i].Ledger, err = r.loadLedger(ctx, debts[i].ID); err != nil {
			return nil, err
		}
	}
	return debts, nil
}

// AppendRepayment only ever inserts; ledger rows are never updated or
// removed, preserving the audit trail.
func (r *Repository) AppendRepayment(ctx context.Context, familyID, debtID string, entry core.Repayment) (*core.Debt, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM debts WHERE id = ? AND family_id = ?",
		debtID, familyID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check debt: %w", err)
	}

	if err := insertRepayment(ctx, r.db, debtID, entry); err != nil {
		return nil, err
	}
	return r.GetDebt(ctx, familyID, debtID)
}

func (r *Repository) MarkDebtRepaid(ctx context.Context, familyID, id string) (*core.Debt, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE debts SET repaid = 1 WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark debt repaid: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return r.GetDebt(ctx, familyID, id)
}

func (r *Repository) DeleteDebt(ctx context.Context, familyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM debts WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return requireRow(res)
}

func insertRepayment(ctx context.Context, db execer, debtID string, entry core.Repayment) error {
	date := entry.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO debt_repayments (debt_id, date, amount_cents, note) VALUES (?, ?, ?, ?)",
		debtID, ts(date), entry.Amount.Cents, entry.Note,
	)
	if err != nil {
		return fmt.Errorf("insert repayment: %w", err)
	}
	return nil
}

func (r *Repository) loadLedger(ctx context.Context, debtID string) ([]core.Repayment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT date, amount_cents, note FROM debt_repayments WHERE debt_id = ? ORDER BY id",
		debtID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var ledger []core.Repayment
	for rows.Next() {
		var (
			entry core.Repayment
			date  int64
		)
		if err := rows.Scan(&date, &entry.Amount.Cents, &entry.Note); err != nil {
			return nil, fmt.Errorf("scan repayment: %w", err)
		}
		entry.Date = fromTS(date)
		ledger = append(ledger, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return ledger, nil
}

func scanDebt(scan func(...any) error) (*core.Debt, error) {
	var (
		d         core.Debt
		dueDate   sql.NullInt64
		repaid    int64
		createdAt int64
	)
	if err := scan(&d.ID, &d.FamilyID, &d.From, &d.To, &d.Amount.Cents, &d.Purpose, &dueDate, &repaid, &d.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	d.DueDate = fromNullTS(dueDate)
	d.Repaid = repaid != 0
	d.CreatedAt = fromTS(createdAt)
	return &d, nil
}
