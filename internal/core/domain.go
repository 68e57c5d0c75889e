package core

import (
	"errors"
	"strings"
	"time"
)

// Roles. Admin and parent bypass capability checks entirely; parent is the
// full-access non-admin role (shown as "member" in parts of the UI). Child
// is the restricted role whose access is opt-in per capability.
const (
	RoleAdmin  Role = "admin"
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

type (
	Role string

	// Actor is the resolved identity attached to every inbound action after
	// authentication. The core never parses credentials; it only consumes
	// this value, passed explicitly into every call.
	Actor struct {
		ID           string
		Role         Role
		FamilyID     string
		Capabilities CapabilitySet
	}

	// Family is the tenancy boundary. Every other record is scoped by
	// family id and never visible or aggregated across it.
	Family struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedBy string    `json:"createdBy,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// User is a family member.
	User struct {
		ID           string        `json:"id"`
		Name         string        `json:"name"`
		Email        string        `json:"email"`
		PasswordHash string        `json:"-"`
		Role         Role          `json:"role"`
		FamilyID     string        `json:"familyId"`
		Capabilities CapabilitySet `json:"permissions"`
		CreatedAt    time.Time     `json:"createdAt"`
		UpdatedAt    time.Time     `json:"updatedAt"`
	}

	// Item is one line of an itemized breakdown on an expense or bill.
	// Items are display-only detail; they are never summed separately from
	// the record's amount.
	Item struct {
		Name  string `json:"name"`
		Price Money  `json:"price"`
	}

	Expense struct {
		ID        string    `json:"id"`
		FamilyID  string    `json:"familyId"`
		UserID    string    `json:"userId"`
		Amount    Money     `json:"amount"`
		Category  string    `json:"category"`
		Note      string    `json:"note,omitempty"`
		Date      time.Time `json:"date"`
		Items     []Item    `json:"items,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Saving has the shape of an Expense without category or items; it
	// represents money set aside rather than spent.
	Saving struct {
		ID        string    `json:"id"`
		FamilyID  string    `json:"familyId"`
		UserID    string    `json:"userId"`
		Amount    Money     `json:"amount"`
		Note      string    `json:"note,omitempty"`
		Date      time.Time `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Bill struct {
		ID        string     `json:"id"`
		FamilyID  string     `json:"familyId"`
		Title     string     `json:"title,omitempty"`
		Category  string     `json:"category"`
		Amount    Money      `json:"amount"`
		Items     []Item     `json:"items,omitempty"`
		DueDate   time.Time  `json:"dueDate"`
		Paid      bool       `json:"paid"`
		PaidOn    *time.Time `json:"paidOn,omitempty"`
		CreatedBy string     `json:"createdBy,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
	}

	// Repayment is one entry of a debt's ledger. The ledger is append-only:
	// entries are never edited or removed once recorded.
	Repayment struct {
		Date   time.Time `json:"date"`
		Amount Money     `json:"amount"`
		Note   string    `json:"note,omitempty"`
	}

	// Debt is an informal debt between free-text counterparties. The repaid
	// flag is a manual display-only override; the ledger sum is the source
	// of truth for the outstanding balance.
	Debt struct {
		ID        string      `json:"id"`
		FamilyID  string      `json:"familyId"`
		From      string      `json:"from"`
		To        string      `json:"to"`
		Amount    Money       `json:"amount"`
		Purpose   string      `json:"purpose,omitempty"`
		DueDate   *time.Time  `json:"dueDate,omitempty"`
		Repaid    bool        `json:"repaid"`
		Ledger    []Repayment `json:"ledger"`
		CreatedBy string      `json:"createdBy,omitempty"`
		CreatedAt time.Time   `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingFamily     = errors.New("missing family reference")
	ErrMissingOwner      = errors.New("missing owner reference")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyCounterparty = errors.New("empty counterparty")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyEmail        = errors.New("empty email")
	ErrInvalidRole       = errors.New("invalid role")
	ErrUnknownCapability = errors.New("unknown capability name")
)

const maxNoteLen = 500

func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleParent, RoleChild:
		return nil
	}
	return ErrInvalidRole
}

// FullAccess reports whether the role bypasses capability checks.
func (r Role) FullAccess() bool {
	return r == RoleAdmin || r == RoleParent
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return ErrEmptyEmail
	}
	if err := u.Role.Validate(); err != nil {
		return err
	}
	if u.FamilyID == "" {
		return ErrMissingFamily
	}
	return u.Capabilities.Validate()
}

func (e Expense) Validate() error {
	if e.FamilyID == "" {
		return ErrMissingFamily
	}
	if e.UserID == "" {
		return ErrMissingOwner
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if len(e.Note) > maxNoteLen {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (s Saving) Validate() error {
	if s.FamilyID == "" {
		return ErrMissingFamily
	}
	if s.UserID == "" {
		return ErrMissingOwner
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.Date.IsZero() {
		return ErrZeroDate
	}
	if len(s.Note) > maxNoteLen {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (b Bill) Validate() error {
	if b.FamilyID == "" {
		return ErrMissingFamily
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDate.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (d Debt) Validate() error {
	if d.FamilyID == "" {
		return ErrMissingFamily
	}
	if strings.TrimSpace(d.From) == "" || strings.TrimSpace(d.To) == "" {
		return ErrEmptyCounterparty
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if len(d.Purpose) > maxNoteLen {
		return errors.New("purpose too long (max 500 characters)")
	}
	return nil
}

// Validate rejects non-positive repayments; a negative "repayment" is an
// input error, never a ledger adjustment.
func (r Repayment) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if len(r.Note) > maxNoteLen {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}
