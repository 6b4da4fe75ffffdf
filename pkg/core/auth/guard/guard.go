// Package guard turns an Authorization header into a verified identity.
package guard

import (
	"strings"

	"github.com/samber/oops"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/auth/token"
)

// Verifier is satisfied by *token.Service.
type Verifier interface {
	Verify(tokenString string) (token.Identity, error)
}

type Guard struct {
	verifier Verifier
}

func New(verifier Verifier) *Guard {
	return &Guard{verifier: verifier}
}

// Authenticate resolves the caller from an "Authorization: Bearer <token>"
// header. Every failure, whatever its cause, is ErrUnauthorized; the cause is
// kept in the oops context for logs only.
func (g *Guard) Authenticate(authorization string) (token.Identity, error) {
	raw, ok := BearerToken(authorization)
	if !ok {
		return token.Identity{}, oops.In("guard").
			Code("AUTH_UNAUTHORIZED").
			With("cause", "missing or malformed authorization header").
			Wrap(apperrors.ErrUnauthorized)
	}

	identity, err := g.verifier.Verify(raw)
	if err != nil {
		return token.Identity{}, oops.In("guard").
			Code("AUTH_UNAUTHORIZED").
			With("cause", err.Error()).
			Wrap(apperrors.ErrUnauthorized)
	}
	return identity, nil
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(rest)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}
