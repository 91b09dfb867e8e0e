package service

import (
	"context"
	"errors"
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/memory"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(memory.NewUserRepository(), &config.JWTConfig{Secret: "test-secret"})
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	u, err := svc.Register(ctx, "Demo", "Demo@Test.Local", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != user.RoleCustomer {
		t.Fatalf("role = %s, want customer", u.Role)
	}
	if u.Email != "demo@test.local" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Fatalf("password stored in the clear")
	}

	token, got, err := svc.Login(ctx, "demo@test.local", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || got.ID != u.ID {
		t.Fatalf("login returned token=%q user=%v", token, got)
	}

	if _, _, err := svc.Login(ctx, "demo@test.local", "wrong"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("wrong password: expected forbidden, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@test.local", "secret1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown email: expected forbidden, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	if _, err := svc.Register(ctx, "", "a@b.c", "secret1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty name: expected validation, got %v", err)
	}
	if _, err := svc.Register(ctx, "A", "a@b.c", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password: expected validation, got %v", err)
	}
	if _, err := svc.CreateWithRole(ctx, "A", "a@b.c", "secret1", "barista"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown role: expected validation, got %v", err)
	}

	if _, err := svc.Register(ctx, "A", "dup@test.local", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "B", "dup@test.local", "secret2"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: expected duplicate, got %v", err)
	}
}

func TestCreateWithRoleUniqueSalts(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)
	u1, err := svc.CreateWithRole(ctx, "Chef", "chef@test.local", "samepass", user.RoleChef)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	u2, err := svc.CreateWithRole(ctx, "Waiter", "waiter@test.local", "samepass", user.RoleWaiter)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u1.Salt == u2.Salt || u1.PasswordHash == u2.PasswordHash {
		t.Fatalf("same password must hash differently per user")
	}
}
