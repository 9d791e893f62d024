package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Issue("5550001111", RolePatient, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "5550001111" {
		t.Errorf("expected subject 5550001111, got %s", claims.Subject)
	}
	if claims.Role != RolePatient {
		t.Errorf("expected role patient, got %s", claims.Role)
	}
	if claims.Tier != "" {
		t.Errorf("expected empty tier, got %s", claims.Tier)
	}
}

func TestIssue_DoctorCarriesTier(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)
	token, err := issuer.Issue("doc-1", RoleDoctor, "SENIOR")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Tier != "SENIOR" {
		t.Errorf("expected tier SENIOR, got %s", claims.Tier)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewIssuer([]byte("secret-a"), time.Hour)
	other := NewIssuer([]byte("secret-b"), time.Hour)

	token, err := issuer.Issue("sub", RoleAdmin, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Error("expected parse to fail with the wrong secret")
	}
}

func TestParse_Expired(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), -time.Minute)
	// NewIssuer clamps non-positive TTLs, so sign an expired token directly.
	issuer.ttl = -time.Minute
	token, err := issuer.Issue("sub", RolePatient, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected parse to reject an expired token")
	}
}

func TestParse_Garbage(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)
	if _, err := issuer.Parse("not-a-token"); err == nil {
		t.Error("expected parse to reject garbage")
	}
}
