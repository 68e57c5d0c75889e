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

const billColumns = "id, family_id, title, category, amount_cents, due_date, paid, paid_on, created_by, created_at"

func (r *Repository) CreateBill(ctx context.Context, b *core.Bill) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.FamilyID, b.Title, b.Category, b.Amount.Cents,
		ts(b.DueDate), boolToInt(b.Paid), nullTS(b.PaidOn), b.CreatedBy, ts(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	if err := insertItems(ctx, tx, "bill_items", "bill_id", b.ID, b.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetBill(ctx context.Context, familyID, id string) (*core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	b, err := scanBill(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if b.Items, err = r.loadItems(ctx, "bill_items", "bill_id", b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repository) BillsByFamily(ctx context.Context, familyID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE family_id = ? ORDER BY due_date, id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}

	for i := range bills {
		if bills[i].Items, err = r.loadItems(ctx, "bill_items", "bill_id", bills[i].ID); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

func (r *Repository) MarkBillPaid(ctx context.Context, familyID, id string, paidOn time.Time) (*core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bills SET paid = 1, paid_on = ? WHERE id = ? AND family_id = ?",
		ts(paidOn), id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark bill paid: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return r.GetBill(ctx, familyID, id)
}

func (r *Repository) DeleteBill(ctx context.Context, familyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM bills WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res)
}

func scanBill(scan func(...any) error) (*core.Bill, error) {
	var (
		b         core.Bill
		dueDate   int64
		paid      int64
		paidOn    sql.NullInt64
		createdAt int64
	)
	if err := scan(&b.ID, &b.FamilyID, &b.Title, &b.Category, &b.Amount.Cents, &dueDate, &paid, &paidOn, &b.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	b.DueDate = fromTS(dueDate)
	b.Paid = paid != 0
	b.PaidOn = fromNullTS(paidOn)
	b.CreatedAt = fromTS(createdAt)
	return &b, nil
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
