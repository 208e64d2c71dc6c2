package auth_test

import (
	"testing"
	"time"

	"timeclock/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := auth.Issue("timeclock", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Errorf("expiry too close: %v", exp)
	}

	claims, err := auth.Parse(token, "secret", "timeclock")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := auth.Issue("timeclock", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.Parse(token, "other", "timeclock"); err == nil {
		t.Error("expected error for wrong signing key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := auth.Issue("someone-else", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.Parse(token, "secret", "timeclock"); err == nil {
		t.Error("expected error for issuer mismatch")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := auth.Issue("timeclock", "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.Parse(token, "secret", "timeclock"); err == nil {
		t.Error("expected error for expired token")
	}
}
