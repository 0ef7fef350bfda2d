package core

import "log/slog"

// Credential is an opaque reference to remote storage authorization (a token
// file path or an inline token). It never renders its value in logs.
type Credential string

const redacted = "[redacted]"

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return redacted
}

func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// Reveal returns the raw reference for adapters that must dereference it.
func (c Credential) Reveal() string {
	return string(c)
}
