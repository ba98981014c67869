package token_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-client/token"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
		"iat": exp.Add(-15 * time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	raw := signedToken(t, "user-1", exp)

	info, err := token.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", info.Subject)
	require.Equal(t, exp.Unix(), info.ExpiresAt.Unix())
}

func TestInspectRejectsOpaqueToken(t *testing.T) {
	_, err := token.Inspect("not-a-jwt")
	require.Error(t, err)
	require.True(t, token.ExpiresAt("not-a-jwt").IsZero())
}

func TestRedactedNeverLeaks(t *testing.T) {
	secret := token.NewRedacted("super-secret-token")

	require.Equal(t, "[REDACTED]", fmt.Sprintf("%s", secret))
	require.Equal(t, "token.Redacted{[REDACTED]}", fmt.Sprintf("%#v", secret))

	data, err := json.Marshal(secret)
	require.NoError(t, err)
	require.JSONEq(t, `"[REDACTED]"`, string(data))

	require.Equal(t, "super-secret-token", secret.Value())
	require.False(t, secret.IsEmpty())
	require.True(t, token.NewRedacted("").IsEmpty())
}
