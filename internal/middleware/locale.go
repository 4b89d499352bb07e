package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Echoform/internal/utils"
)

type ctxKey int

const (
	localeKey ctxKey = iota + 1
	tokenKey
	requestIDKey
)

// Locale picks the label language from ?lang= or Accept-Language, falling
// back to def.
func Locale(def string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), utils.SupportedLocales, def)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok && s != "" {
		return s
	}
	return "en"
}
