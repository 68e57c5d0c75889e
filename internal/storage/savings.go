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

const savingColumns = "id, family_id, user_id, amount_cents, note, date, created_at, updated_at"

func (r *Repository) CreateSaving(ctx context.Context, s *core.Saving) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO savings ("+savingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.FamilyID, s.UserID, s.Amount.Cents, s.Note,
		ts(s.Date), ts(s.CreatedAt), ts(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert saving: %w", err)
	}
	return nil
}

func (r *Repository) GetSaving(ctx context.Context, familyID, id string) (*core.Saving, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+savingColumns+" FROM savings WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	s, err := scanSaving(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get saving: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSavings(ctx context.Context, familyID, ownerID string) ([]core.Saving, error) {
	query := "SELECT " + savingColumns + " FROM savings WHERE family_id = ?"
	args := []any{familyID}
	if ownerID != "" {
		query += " AND user_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY date DESC, id"
	return r.querySavings(ctx, query, args...)
}

func (r *Repository) SavingsInRange(ctx context.Context, familyID string, from, to time.Time) ([]core.Saving, error) {
	return r.querySavings(ctx,
		"SELECT "+savingColumns+" FROM savings WHERE family_id = ? AND date >= ? AND date < ? ORDER BY date, id",
		familyID, ts(from), ts(to),
	)
}

func (r *Repository) querySavings(ctx context.Context, query string, args ...any) ([]core.Saving, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}
	defer rows.Close()

	var savings []core.Saving
	for rows.Next() {
		s, err := scanSaving(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		savings = append(savings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings: %w", err)
	}
	return savings, nil
}

func (r *Repository) UpdateSaving(ctx context.Context, s *core.Saving) error {
	s.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE savings SET amount_cents = ?, note = ?, date = ?, updated_at = ?
		 WHERE id = ? AND family_id = ?`,
		s.Amount.Cents, s.Note, ts(s.Date), ts(s.UpdatedAt),
		s.ID, s.FamilyID,
	)
	if err != nil {
		return fmt.Errorf("update saving: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteSaving(ctx context.Context, familyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM savings WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete saving: %w", err)
	}
	return requireRow(res)
}

func scanSaving(scan func(...any) error) (*core.Saving, error) {
	var (
		s         core.Saving
		date      int64
		createdAt int64
		updatedAt int64
	)
	if err := scan(&s.ID, &s.FamilyID, &s.UserID, &s.Amount.Cents, &s.Note, &date, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Date = fromTS(date)
	s.CreatedAt = fromTS(createdAt)
	s.UpdatedAt = fromTS(updatedAt)
	return &s, nil
}
