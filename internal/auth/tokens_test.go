package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestResultTokenRoundTrip(t *testing.T) {
	jobID := uuid.New()

	tokenString, err := SignResultToken(jobID, time.Hour)
	if err != nil {
		t.Fatalf("SignResultToken: %v", err)
	}

	got, err := VerifyResultToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyResultToken: %v", err)
	}
	if got != jobID {
		t.Errorf("verified job = %s, want %s", got, jobID)
	}
}

func TestResultTokenExpired(t *testing.T) {
	tokenString, err := SignResultToken(uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("SignResultToken: %v", err)
	}

	if _, err := VerifyResultToken(tokenString); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestResultTokenGarbage(t *testing.T) {
	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := VerifyResultToken(tokenString); err == nil {
			t.Errorf("expected %q to be rejected", tokenString)
		}
	}
}

func TestResultTokenTamperedSignature(t *testing.T) {
	tokenString, err := SignResultToken(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("SignResultToken: %v", err)
	}

	tampered := tokenString[:len(tokenString)-2] + "xx"
	if _, err := VerifyResultToken(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}
