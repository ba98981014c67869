// Package credentials provides durable storage for the access/refresh token
// pair issued by the dashboard API. The store is pure persistence: it applies
// no policy and never decides whether a token is still valid.
package credentials

// Pair is the credential pair issued by a successful login or refresh.
// Both tokens are opaque bearer strings.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether neither token is set.
func (p Pair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Store persists a single credential pair. Absence is represented by empty
// strings and false, never by an error: storage I/O failures are logged by
// implementations and collapse to "no credentials". Writes are visible to
// subsequent reads within the same process immediately.
type Store interface {
	// Access returns the stored access token, or "" when none is stored.
	Access() string

	// Refresh returns the stored refresh token, or "" when none is stored.
	Refresh() string

	// Set replaces the stored pair.
	Set(pair Pair)

	// Clear removes the stored pair. Safe to call when nothing is stored.
	Clear()

	// Exists reports whether a pair is currently stored.
	Exists() bool
}
