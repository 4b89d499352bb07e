package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields read from a bearer token. The signature is
// not checked here; the backend verifies every request.
type TokenClaims struct {
	UserID     string
	BusinessID string
	ExpiresAt  time.Time
	Parsed     bool
}

// Expired reports whether the token carries an expiry before now. Tokens
// that are not JWTs or have no exp never expire locally.
func (c TokenClaims) Expired(now time.Time) bool {
	return c.Parsed && !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func InspectToken(token string) TokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return TokenClaims{}
	}
	out := TokenClaims{Parsed: true}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.UserID = sub
	}
	for _, k := range []string{"userId", "id", "_id"} {
		if out.UserID != "" {
			break
		}
		out.UserID, _ = claims[k].(string)
	}
	for _, k := range []string{"businessId", "business"} {
		if s, ok := claims[k].(string); ok && s != "" {
			out.BusinessID = s
			break
		}
	}
	return out
}
