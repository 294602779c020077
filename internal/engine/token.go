package engine

import (
	"strings"
)

// TokenParser splits a raw op token into the canonical operator name and an
// inversion flag. The evaluator relies only on this contract, not on any
// particular marker syntax.
type TokenParser interface {
	ParseOperatorToken(raw string) (name string, inverted bool, err error)
}

// PrefixTokenParser treats a single leading Marker as inversion, e.g. "!eq".
// An empty Marker disables inversion entirely.
type PrefixTokenParser struct {
	Marker string
}

// DefaultTokenParser inverts operators prefixed with "!".
var DefaultTokenParser = PrefixTokenParser{Marker: "!"}

// ParseOperatorToken implements TokenParser. More than one marker in the
// token is rejected.
func (p PrefixTokenParser) ParseOperatorToken(raw string) (string, bool, error) {
	token := strings.TrimSpace(raw)
	if p.Marker == "" {
		return token, false, nil
	}

	if strings.Count(token, p.Marker) > 1 {
		return "", false, shapeError(token, "multiple inversion markers %q in operator", p.Marker)
	}

	inverted := strings.HasPrefix(token, p.Marker)
	name := strings.TrimSpace(strings.TrimPrefix(token, p.Marker))
	return name, inverted, nil
}
