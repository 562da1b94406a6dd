// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TokenHeader is an alternative to the Authorization header.
const TokenHeader = "X-Vigil-Token"

// MinTokenLength is the shortest admin token HashToken accepts.
const MinTokenLength = 12

var (
	// ErrNotConfigured means no token hash is configured.
	ErrNotConfigured = errors.New("admin token not configured")

	// ErrMissingToken means the request carried no token.
	ErrMissingToken = errors.New("admin token required")

	// ErrInvalidToken means the token did not match the hash.
	ErrInvalidToken = errors.New("invalid admin token")
)

// TokenAuthenticator verifies admin tokens against a bcrypt hash.
type TokenAuthenticator struct {
	hash []byte
}

// NewTokenAuthenticator creates an authenticator for hash. An empty hash
// yields an authenticator that rejects everything with ErrNotConfigured.
func NewTokenAuthenticator(hash string) (*TokenAuthenticator, error) {
	if hash == "" {
		return &TokenAuthenticator{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid token hash: %w", err)
	}
	return &TokenAuthenticator{hash: []byte(hash)}, nil
}

// Configured reports whether a hash is set.
func (a *TokenAuthenticator) Configured() bool {
	return len(a.hash) > 0
}

// Verify checks token. bcrypt comparison is constant time.
func (a *TokenAuthenticator) Verify(token string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	if token == "" {
		return ErrMissingToken
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
		return ErrInvalidToken
	}
	return nil
}

// TokenFromRequest extracts the token from "Authorization: Bearer <token>"
// or the X-Vigil-Token header.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

// HashToken returns the bcrypt hash to put in admin.token_hash.
func HashToken(token string) (string, error) {
	if len(token) < MinTokenLength {
		return "", fmt.Errorf("token must be at least %d characters", MinTokenLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), 12)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}
