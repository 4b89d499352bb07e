package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, _ := TokenFromContext(r.Context())
		_, _ = w.Write([]byte(LocaleFromContext(r.Context()) + "|" + tok))
	})
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestBearerStoresToken(t *testing.T) {
	tok := token(t, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rr := httptest.NewRecorder()
	Bearer(nil)(RequireToken(okHandler())).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "en|"+tok, rr.Body.String())
}

func TestBearerRejectsExpired(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, time.Now().Add(-time.Hour)))
	rr := httptest.NewRecorder()
	Bearer(nil)(okHandler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["logout"])
	assert.Equal(t, "unauthorized", body["error"])
}

func TestRequireTokenWithoutHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	Bearer(nil)(RequireToken(okHandler())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLocale(t *testing.T) {
	cases := map[string]string{
		"/?lang=tr":    "tr",
		"/?lang=de":    "en",
		"/?lang=TR-tr": "tr",
		"/":            "en",
	}
	for target, want := range cases {
		rr := httptest.NewRecorder()
		Locale("en")(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, want+"|", rr.Body.String(), target)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de;q=0.9, tr-TR;q=0.8")
	rr := httptest.NewRecorder()
	Locale("en")(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, "tr|", rr.Body.String())
	assert.Equal(t, "tr", rr.Header().Get("Content-Language"))
}

func TestCORS(t *testing.T) {
	h := CORS("https://console.example.com/")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://console.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	CORS("")(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecureHeaders(NoStore(okHandler())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store, max-age=0", rr.Header().Get("Cache-Control"))
	assert.Equal(t, uiCSP, rr.Header().Get("Content-Security-Policy"))

	rr = httptest.NewRecorder()
	SecureHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, apiCSP, rr.Header().Get("Content-Security-Policy"))
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	id := rr.Header().Get("X-Request-ID")
	assert.NotEqual(t, "not-a-uuid", id)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusTeapot), entries[0].ContextMap()["status"])
	assert.Equal(t, id, entries[0].ContextMap()["request_id"])

	const fixed = "9b2c4f1e-8a57-4c1b-9a53-3f1d2a6f0c11"
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", fixed)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, fixed, rr.Header().Get("X-Request-ID"))
}
