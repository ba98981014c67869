// Package token provides helpers for handling bearer tokens on the client
// side: redaction for logs and unverified claim inspection for display.
// Nothing in this package verifies a signature; authorization decisions
// belong to the server.
package token

// Redacted wraps a sensitive token string to prevent accidental logging.
// It implements fmt.Stringer and the marshal interfaces to return
// "[REDACTED]" instead of the actual value.
type Redacted struct {
	value string
}

// NewRedacted creates a Redacted wrapping the given value.
func NewRedacted(value string) Redacted {
	return Redacted{value: value}
}

// Value returns the actual token value. Use it only when the token needs to
// be placed in a request header; never log the result.
func (t Redacted) Value() string {
	return t.value
}

// IsEmpty reports whether the token value is empty.
func (t Redacted) IsEmpty() bool {
	return t.value == ""
}

// String implements fmt.Stringer.
func (t Redacted) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (t Redacted) GoString() string {
	return "token.Redacted{[REDACTED]}"
}

// MarshalText implements encoding.TextMarshaler.
func (t Redacted) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler.
func (t Redacted) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
