package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func challengeOf(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func TestNewPKCE(t *testing.T) {
	pkce, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE() error = %v", err)
	}

	// RFC 7636 allows 43-128 characters
	if n := len(pkce.Verifier); n < 43 || n > 128 {
		t.Errorf("Verifier length = %d, want 43..128", n)
	}

	if len(pkce.State) != StateLength {
		t.Errorf("State length = %d, want %d", len(pkce.State), StateLength)
	}

	if pkce.Challenge != challengeOf(pkce.Verifier) {
		t.Errorf("Challenge = %q, want %q", pkce.Challenge, challengeOf(pkce.Verifier))
	}

	pkce2, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE() second call error = %v", err)
	}
	if pkce.Verifier == pkce2.Verifier {
		t.Error("Two PKCE instances have same verifier, expected unique")
	}
	if pkce.State == pkce2.State {
		t.Error("Two PKCE instances have same state, expected unique")
	}
}

func TestGenerateRandomString(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"short", 16},
		{"medium", 64},
		{"long", 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := generateRandomString(tt.length)
			if err != nil {
				t.Fatalf("generateRandomString(%d) error = %v", tt.length, err)
			}
			if len(s) != tt.length {
				t.Errorf("length = %d, want %d", len(s), tt.length)
			}

			for _, c := range s {
				if !isURLSafeBase64Char(c) {
					t.Errorf("invalid character %q in random string", c)
				}
			}
		})
	}
}

func isURLSafeBase64Char(c rune) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}
