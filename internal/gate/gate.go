// Package gate implements the shared-secret check guarding admin
// operations such as competition edits.
package gate

import (
	"crypto/subtle"
	"strings"
)

// Gate verifies submitted passphrases against a configured secret.
type Gate struct {
	secret string
}

// New creates a Gate. The secret is trimmed of surrounding whitespace;
// an empty secret disables the gate entirely, every check fails.
func New(secret string) *Gate {
	return &Gate{secret: strings.TrimSpace(secret)}
}

// Enabled reports whether a non-empty secret is configured.
func (g *Gate) Enabled() bool {
	return g.secret != ""
}

// Verify reports whether the submitted value matches the secret.
// Both sides are compared after trimming, in constant time.
func (g *Gate) Verify(submitted string) bool {
	if g.secret == "" {
		return false
	}
	candidate := strings.TrimSpace(submitted)
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(candidate)) == 1
}
