package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateAccessToken("reader", 42, time.Now().Add(AccessTokenDuration), secret)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	userID, username, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("Failed to parse access token: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user ID 42, got %d", userID)
	}
	if username != "reader" {
		t.Errorf("Expected username %q, got %q", "reader", username)
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("reader", 42, time.Now().Add(time.Hour), []byte("right"))
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	if _, _, err := ParseAccessToken(token, []byte("wrong")); err == nil {
		t.Errorf("Expected an error for a token signed with another secret")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateAccessToken("reader", 42, time.Now().Add(-time.Hour), secret)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	if _, _, err := ParseAccessToken(token, secret); err == nil {
		t.Errorf("Expected an error for an expired token")
	}
}

func TestGenerateAccessTokenNeverExpires(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateAccessToken("reader", 42, time.Time{}, secret)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	if _, _, err := ParseAccessToken(token, secret); err != nil {
		t.Errorf("Expected a token without expiry to verify, got %v", err)
	}
}
