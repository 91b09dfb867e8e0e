package auth

import (
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret"}
	u := &user.User{ID: "u-1", Email: "chef@test.local", Role: user.RoleChef}

	token, err := GenerateToken(cfg, u)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "chef@test.local" || claims.Role != user.RoleChef {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	u := &user.User{ID: "u-1", Email: "a@b.c", Role: user.RoleCustomer}
	token, err := GenerateToken(&config.JWTConfig{Secret: "one"}, u)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(&config.JWTConfig{Secret: "two"}, token); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestConsistentHashStable(t *testing.T) {
	ring := NewConsistentHashRing([]string{"n1", "n2", "n3"}, 50)
	first := ring.GetNode("some-token")
	for i := 0; i < 100; i++ {
		if got := ring.GetNode("some-token"); got != first {
			t.Fatalf("node changed: %s -> %s", first, got)
		}
	}
}

func TestConsistentHashSpread(t *testing.T) {
	ring := NewConsistentHashRing([]string{"n1", "n2", "n3"}, 50)
	seen := make(map[string]bool)
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, k := range keys {
		seen[ring.GetNode(k)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("keys all landed on one node: %v", seen)
	}
}

func TestEmptyRingGetsDefaultNode(t *testing.T) {
	ring := NewConsistentHashRing(nil, 0)
	if ring.GetNode("x") == "" {
		t.Fatalf("empty node list must fall back to a default node")
	}
}
