package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"hearth/internal/core"
	"hearth/internal/storage"
)

func newTestService() (*Service, *storage.Memory) {
	store := storage.NewMemory()
	jwt := NewJWTManager("test-secret-0123456789", time.Hour)
	return NewService(store, jwt), store
}

func TestRegisterCreatesFamilyAdmin(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Rossi", "Ana", "Ana@Example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if user.Role != core.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	for _, name := range core.Capabilities() {
		if !user.Capabilities.Granted(name) {
			t.Errorf("founder missing capability %s", name)
		}
	}

	fam, err := store.GetFamily(ctx, user.FamilyID)
	if err != nil {
		t.Fatalf("family not persisted: %v", err)
	}
	if fam.Name != "Rossi" {
		t.Errorf("family name = %q", fam.Name)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), "Rossi", "Ana", "ana@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Rossi", "Ana", "ana@example.com", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "Bianchi", "Other", "ana@example.com", "password123"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Rossi", "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, token, err := svc.Login(ctx, "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID || token == "" {
		t.Fatalf("user = %+v token = %q", user, token)
	}

	// Wrong password and unknown email fail identically.
	if _, _, err := svc.Login(ctx, "ana@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v", err)
	}
}

func TestCreateMember(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	admin, _, err := svc.Register(ctx, "Rossi", "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	caps := core.CapabilitySet{core.CapViewExpenses: true, core.CapAddExpenses: true}
	kid, err := svc.CreateMember(ctx, admin.FamilyID, "Ben", "ben@example.com", "password123", core.RoleChild, caps)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if kid.Role != core.RoleChild || kid.FamilyID != admin.FamilyID {
		t.Fatalf("member = %+v", kid)
	}
	if !kid.Capabilities.Granted(core.CapAddExpenses) || kid.Capabilities.Granted(core.CapViewBills) {
		t.Fatalf("capabilities = %v", kid.Capabilities)
	}

	// A full-access role ignores the provided set and gets everything.
	par, err := svc.CreateMember(ctx, admin.FamilyID, "Cara", "cara@example.com", "password123", core.RoleParent, nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if !par.Capabilities.Granted(core.CapViewDebts) {
		t.Fatal("parent should hold the full set")
	}
}

func TestUpdateMember(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	admin, _, err := svc.Register(ctx, "Rossi", "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	kid, err := svc.CreateMember(ctx, admin.FamilyID, "Ben", "ben@example.com", "password123", core.RoleChild, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	updated, err := svc.UpdateMember(ctx, admin.FamilyID, kid.ID, "Benjamin", "", "", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Benjamin" || updated.Email != "ben@example.com" {
		t.Fatalf("updated = %+v", updated)
	}

	// Empty password keeps the old credential working.
	if _, _, err := svc.Login(ctx, "ben@example.com", "password123"); err != nil {
		t.Fatalf("login after profile edit: %v", err)
	}

	// A password change invalidates the old one.
	if _, err := svc.UpdateMember(ctx, admin.FamilyID, kid.ID, "", "", "newpassword123", ""); err != nil {
		t.Fatalf("password update: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ben@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password should no longer work")
	}
	if _, _, err := svc.Login(ctx, "ben@example.com", "newpassword123"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}
