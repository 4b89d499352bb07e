// Package api is the console's HTTP API. Handlers forward the caller's
// bearer token to the backend and return standardized views.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Echoform/internal/backend"
	"github.com/soaringjerry/Echoform/internal/middleware"
	"github.com/soaringjerry/Echoform/internal/services"
	"github.com/soaringjerry/Echoform/internal/utils"
)

const maxRequestBody = 1 << 20

type Options struct {
	Version              string
	DefaultLocale        string
	AllowedOrigin        string
	PublicBaseURL        string
	WriteTimeout         time.Duration
	MaxConcurrentFetches int
	FallbackQuestions    map[string]string
	// Frontend, when set, serves every path the API does not claim.
	Frontend http.Handler
}

type Router struct {
	client *backend.Client
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

func NewRouter(client *backend.Client, opts Options, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}
	return &Router{client: client, opts: opts, log: log.Named("api"), now: time.Now}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireToken(h))
	}
	authed("GET /api/me", rt.handleMe)
	authed("GET /api/businesses/{businessID}/responses", rt.handleBusinessResponses)
	authed("GET /api/businesses/{businessID}/surveys/{surveyID}/responses", rt.handleSurveyResponses)
	authed("GET /api/businesses/{businessID}/customers/{customerID}/responses", rt.handleCustomerResponses)
	authed("GET /api/businesses/{businessID}/rewards", rt.handleRewards)
	authed("GET /api/businesses/{businessID}/analytics", rt.handleAnalytics)
	authed("GET /api/businesses/{businessID}/export", rt.handleExport)
	authed("POST /api/businesses/{businessID}/responses/{responseID}/approve", rt.handleApprove)
	authed("POST /api/businesses/{businessID}/responses/{responseID}/reject", rt.handleReject)
	authed("DELETE /api/businesses/{businessID}/responses/{responseID}", rt.handleDelete)
	authed("POST /api/businesses/{businessID}/customers/points", rt.handleAdjustPoints)
	authed("POST /api/surveys", rt.handleCreateSurvey)

	if rt.opts.Frontend != nil {
		mux.Handle("/", rt.opts.Frontend)
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	var h http.Handler = mux
	h = middleware.Bearer(rt.now)(h)
	h = middleware.Locale(rt.opts.DefaultLocale)(h)
	h = middleware.NoStore(h)
	h = middleware.CORS(rt.opts.AllowedOrigin)(h)
	h = middleware.SecureHeaders(h)
	h = middleware.RequestLog(rt.log)(h)
	return h
}

// services bound to the request's token and locale.
type requestServices struct {
	client    *backend.Client
	responses *services.ResponseService
}

func (rt *Router) servicesFor(r *http.Request) requestServices {
	tok, _ := middleware.TokenFromContext(r.Context())
	cl := rt.client.WithToken(tok)
	resp := services.NewResponseService(cl, cl, services.ResponseOptions{
		Labels:               services.LabelsFor(middleware.LocaleFromContext(r.Context())),
		FallbackQuestions:    rt.opts.FallbackQuestions,
		MaxConcurrentFetches: rt.opts.MaxConcurrentFetches,
	}, rt.log)
	return requestServices{client: cl, responses: resp}
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": utils.T(middleware.LocaleFromContext(r.Context()), "health.ok"),
		"time":   rt.now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	v := rt.opts.Version
	if v == "" {
		v = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": v})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		return services.NewInvalidError("invalid JSON: " + err.Error())
	}
	return nil
}

var statusByCode = map[services.ErrorCode]int{
	services.ErrorInvalid:      http.StatusBadRequest,
	services.ErrorForbidden:    http.StatusForbidden,
	services.ErrorNotFound:     http.StatusNotFound,
	services.ErrorUnauthorized: http.StatusUnauthorized,
	services.ErrorBadGateway:   http.StatusBadGateway,
	services.ErrorNetwork:      http.StatusServiceUnavailable,
}

// writeServiceError maps err onto the API error body. Unauthorized errors
// carry logout so the console ends the session.
func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error("unhandled error", zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal", "message": "internal error"})
		return
	}
	status, known := statusByCode[se.Code]
	if !known {
		status = http.StatusInternalServerError
	}
	body := map[string]any{"error": string(se.Code), "message": err.Error()}
	if se.Code == services.ErrorUnauthorized {
		body["logout"] = true
	}
	writeJSON(w, status, body)
}
