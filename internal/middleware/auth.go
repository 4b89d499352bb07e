package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/soaringjerry/Echoform/internal/session"
)

// Bearer stores the request's bearer token in the context. A token whose
// exp claim has passed is refused with 401 and logout set, so the console
// drops it. Signatures are left to the backend.
func Bearer(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
				tok := strings.TrimSpace(h[7:])
				if session.InspectToken(tok).Expired(now()) {
					WriteUnauthorized(w, "session expired")
					return
				}
				if tok != "" {
					r = r.WithContext(context.WithValue(r.Context(), tokenKey, tok))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireToken refuses requests without a bearer token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TokenFromContext(r.Context()); !ok {
			WriteUnauthorized(w, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok && tok != ""
}

// WriteUnauthorized writes the forced-logout error body.
func WriteUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "message": msg, "logout": true})
}
