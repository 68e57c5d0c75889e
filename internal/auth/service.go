package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hearth/internal/core"
	"hearth/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

const minPasswordLen = 8

// UserStore is the slice of storage the auth flows need.
type UserStore interface {
	CreateFamily(ctx context.Context, f *core.Family) error
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetMember(ctx context.Context, familyID, id string) (*core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
}

// Service implements registration, login and admin-driven member creation
// with bcrypt-hashed passwords.
type Service struct {
	store UserStore
	jwt   *JWTManager
}

func NewService(store UserStore, jwt *JWTManager) *Service {
	return &Service{store: store, jwt: jwt}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new family together with its first member. The founder
// is always an admin and holds every capability, so the family is fully
// manageable from the moment it exists.
func (s *Service) Register(ctx context.Context, familyName, name, email, password string) (*core.User, string, error) {
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	family := &core.Family{Name: strings.TrimSpace(familyName)}
	if family.Name == "" {
		family.Name = strings.TrimSpace(name)
	}
	if err := s.store.CreateFamily(ctx, family); err != nil {
		return nil, "", fmt.Errorf("create family: %w", err)
	}

	user := &core.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         core.RoleAdmin,
		FamilyID:     family.ID,
		Capabilities: core.FullCapabilitySet(),
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, "", ErrEmailExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies email and password and returns the user with a fresh token.
// Lookup failures and hash mismatches report the same error so the response
// never reveals whether an email is registered.
func (s *Service) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CreateMember adds a member to an existing family. The caller's admin check
// happens in the access layer before this is reached.
func (s *Service) CreateMember(ctx context.Context, familyID, name, email, password string, role core.Role, caps core.CapabilitySet) (*core.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if role.FullAccess() {
		caps = core.FullCapabilitySet()
	}
	user := &core.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		FamilyID:     familyID,
		Capabilities: caps.Normalized(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	return user, nil
}

// UpdateMember edits a member's profile fields. An empty password leaves the
// stored hash untouched.
func (s *Service) UpdateMember(ctx context.Context, familyID, id, name, email, password string, role core.Role) (*core.User, error) {
	user, err := s.store.GetMember(ctx, familyID, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if email = normalizeEmail(email); email != "" {
		user.Email = email
	}
	if role != "" {
		user.Role = role
		if role.FullAccess() {
			user.Capabilities = core.FullCapabilitySet()
		}
	}
	if password != "" {
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
