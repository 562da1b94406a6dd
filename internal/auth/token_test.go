// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const testToken = "correct-horse-battery"

func testHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	return string(hash)
}

func TestTokenAuthenticator_Verify(t *testing.T) {
	a, err := NewTokenAuthenticator(testHash(t))
	if err != nil {
		t.Fatalf("NewTokenAuthenticator: %v", err)
	}
	if !a.Configured() {
		t.Fatal("authenticator should be configured")
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"correct", testToken, nil},
		{"wrong", "wrong-token-value", ErrInvalidToken},
		{"empty", "", ErrMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Verify(%q) = %v, want %v", tt.token, err, tt.want)
			}
		})
	}
}

func TestTokenAuthenticator_NotConfigured(t *testing.T) {
	a, err := NewTokenAuthenticator("")
	if err != nil {
		t.Fatalf("NewTokenAuthenticator: %v", err)
	}
	if a.Configured() {
		t.Error("empty hash should not be configured")
	}
	if err := a.Verify(testToken); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Verify() = %v, want ErrNotConfigured", err)
	}
}

func TestNewTokenAuthenticator_InvalidHash(t *testing.T) {
	if _, err := NewTokenAuthenticator("not-a-bcrypt-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc"},
		{"bearer lowercase", map[string]string{"Authorization": "bearer abc"}, "abc"},
		{"custom header", map[string]string{TokenHeader: "xyz"}, "xyz"},
		{"basic ignored", map[string]string{"Authorization": "Basic Zm9vOmJhcg=="}, ""},
		{"basic falls back", map[string]string{"Authorization": "Basic Zm9v", TokenHeader: "xyz"}, "xyz"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("TokenFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	if _, err := HashToken("short"); err == nil {
		t.Error("expected error for short token")
	}

	hash, err := HashToken(testToken)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	a, err := NewTokenAuthenticator(hash)
	if err != nil {
		t.Fatalf("NewTokenAuthenticator: %v", err)
	}
	if err := a.Verify(testToken); err != nil {
		t.Errorf("Verify() = %v, want nil", err)
	}
}
