package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hearth/internal/core"
)

func (r *Repository) CreateFamily(ctx context.Context, f *core.Family) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO families (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		f.ID, f.Name, f.CreatedBy, ts(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	return nil
}

func (r *Repository) GetFamily(ctx context.Context, id string) (*core.Family, error) {
	var (
		f         core.Family
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM families WHERE id = ?",
		id,
	).Scan(&f.ID, &f.Name, &f.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	f.CreatedAt = fromTS(createdAt)
	return &f, nil
}

const userColumns = "id, family_id, name, email, password_hash, role, capabilities, created_at, updated_at"

func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	caps, err := json.Marshal(u.Capabilities.Normalized())
	if err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.FamilyID, u.Name, u.Email, u.PasswordHash, string(u.Role), string(caps),
		ts(u.CreatedAt), ts(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (r *Repository) GetMember(ctx context.Context, familyID, id string) (*core.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? AND family_id = ?", id, familyID)
}

func (r *Repository) getUser(ctx context.Context, query string, args ...any) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) MembersByFamily(ctx context.Context, familyID string) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE family_id = ? ORDER BY created_at, id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *core.User) error {
	u.UpdatedAt = time.Now().UTC()

	caps, err := json.Marshal(u.Capabilities.Normalized())
	if err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, capabilities = ?, updated_at = ?
		 WHERE id = ? AND family_id = ?`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), string(caps), ts(u.UpdatedAt),
		u.ID, u.FamilyID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) UpdateCapabilities(ctx context.Context, familyID, id string, caps core.CapabilitySet) error {
	encoded, err := json.Marshal(caps.Normalized())
	if err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET capabilities = ?, updated_at = ? WHERE id = ? AND family_id = ?",
		string(encoded), ts(time.Now()), id, familyID,
	)
	if err != nil {
		return fmt.Errorf("update capabilities: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes the member only. Their historical records stay; the
// aggregation layer treats unresolved owners as excluded from per-member
// breakdowns.
func (r *Repository) DeleteUser(ctx context.Context, familyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM users WHERE id = ? AND family_id = ?",
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func scanUser(scan func(...any) error) (*core.User, error) {
	var (
		u         core.User
		role      string
		caps      string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&u.ID, &u.FamilyID, &u.Name, &u.Email, &u.PasswordHash, &role, &caps, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = core.Role(role)
	u.CreatedAt = fromTS(createdAt)
	u.UpdatedAt = fromTS(updatedAt)

	set := core.CapabilitySet{}
	if caps != "" {
		if err := json.Unmarshal([]byte(caps), &set); err != nil {
			return nil, fmt.Errorf("decode capabilities: %w", err)
		}
	}
	u.Capabilities = set.Normalized()
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text;
	// there is no typed error to match against.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
