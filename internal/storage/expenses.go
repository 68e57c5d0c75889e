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

const expenseColumns = "id, family_id, user_id, amount_cents, category, note, date, created_at, updated_at"

func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.FamilyID, e.UserID, e.Amount.Cents, e.Category, e.Note,
		ts(e.Date), ts(e.CreatedAt), ts(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if err := insertItems(ctx, tx, "expense_items", "expense_id", e.ID, e.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetExpense(ctx context.Context, familyID, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if e.Items, err = r.loadItems(ctx, "expense_items", "expense_id", e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, familyID, ownerID string) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE family_id = ?"
	args := []any{familyID}
	if ownerID != "" {
		query += " AND user_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY date DESC, id"
	return r.queryExpenses(ctx, query, args...)
}

func (r *Repository) ExpensesInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE family_id = ? AND date >= ? AND date < ? ORDER BY date, id",
		familyID, ts(from), ts(to),
	)
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	for i := range expenses {
		if expenses[i].Items, err = r.loadItems(ctx, "expense_items", "expense_id", expenses[i].ID); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	e.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, category = ?, note = ?, date = ?, updated_at = ?
		 WHERE id = ? AND family_id = ?`,
		e.Amount.Cents, e.Category, e.Note, ts(e.Date), ts(e.UpdatedAt),
		e.ID, e.FamilyID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_items WHERE expense_id = ?", e.ID); err != nil {
		return fmt.Errorf("clear expense items: %w", err)
	}
	if err := insertItems(ctx, tx, "expense_items", "expense_id", e.ID, e.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, familyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

func scanExpense(scan func(...any) error) (*core.Expense, error) {
	var (
		e         core.Expense
		date      int64
		createdAt int64
		updatedAt int64
	)
	if err := scan(&e.ID, &e.FamilyID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Note, &date, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Date = fromTS(date)
	e.CreatedAt = fromTS(createdAt)
	e.UpdatedAt = fromTS(updatedAt)
	return &e, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItems(ctx context.Context, db execer, table, fkColumn, parentID string, items []core.Item) error {
	for i, item := range items {
		_, err := db.ExecContext(ctx,
			"INSERT INTO "+table+" ("+fkColumn+", position, name, price_cents) VALUES (?, ?, ?, ?)",
			parentID, i, item.Name, item.Price.Cents,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

func (r *Repository) loadItems(ctx context.Context, table, fkColumn, parentID string) ([]core.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, price_cents FROM "+table+" WHERE "+fkColumn+" = ? ORDER BY position",
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var item core.Item
		if err := rows.Scan(&item.Name, &item.Price.Cents); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
