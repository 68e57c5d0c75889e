package auth

import (
	"testing"
	"time"

	"hearth/internal/core"
)

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret-0123456789", time.Hour)
	user := &core.User{ID: "u1", FamilyID: "fam1", Email: "ana@example.com"}

	token, err := mgr.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.FamilyID != "fam1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	a := NewJWTManager("secret-a-0123456789", time.Hour)
	b := NewJWTManager("secret-b-0123456789", time.Hour)

	token, err := a.Generate(&core.User{ID: "u1", FamilyID: "fam1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := b.Validate(token); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("test-secret-0123456789", -time.Minute)

	token, err := mgr.Generate(&core.User{ID: "u1", FamilyID: "fam1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := mgr.Validate(token); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret-0123456789", time.Hour)
	if _, err := mgr.Validate("not-a-token"); err == nil {
		t.Fatal("garbage token should be rejected")
	}
}
