package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info holds the display-relevant claims of an access token.
type Info struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect decodes the claims of a JWT access token without verifying its
// signature. The result is suitable for display (e.g. "token expires at")
// only; the server remains the authority on token validity.
func Inspect(raw string) (*Info, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("token.Inspect: %w", err)
	}

	info := &Info{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}

// ExpiresAt returns the expiry of a JWT access token, or the zero time when
// the token is not a JWT or carries no exp claim.
func ExpiresAt(raw string) time.Time {
	info, err := Inspect(raw)
	if err != nil {
		return time.Time{}
	}
	return info.ExpiresAt
}
