package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/Echoform/internal/middleware"
	"github.com/soaringjerry/Echoform/internal/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	auth := services.NewAuthService(rt.client, nil, rt.log)
	res, err := auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       res.Token,
		"user":        res.User,
		"business_id": res.User.BusinessID(),
	})
}

// GET /api/me
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	tok, _ := middleware.TokenFromContext(r.Context())
	u, err := services.NewAuthService(rt.client, nil, rt.log).Me(r.Context(), tok)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "business_id": u.BusinessID()})
}

func writeViews(w http.ResponseWriter, views []services.ResponseView) {
	if views == nil {
		views = []services.ResponseView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": views, "count": len(views)})
}

// GET /api/businesses/{businessID}/responses
func (rt *Router) handleBusinessResponses(w http.ResponseWriter, r *http.Request) {
	views, err := rt.servicesFor(r).responses.ListBusinessResponses(r.Context(), r.PathValue("businessID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// GET /api/businesses/{businessID}/surveys/{surveyID}/responses
func (rt *Router) handleSurveyResponses(w http.ResponseWriter, r *http.Request) {
	views, err := rt.servicesFor(r).responses.ListSurveyResponses(r.Context(), r.PathValue("businessID"), r.PathValue("surveyID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// GET /api/businesses/{businessID}/customers/{customerID}/responses
func (rt *Router) handleCustomerResponses(w http.ResponseWriter, r *http.Request) {
	views, err := rt.servicesFor(r).responses.ListCustomerResponses(r.Context(), r.PathValue("businessID"), r.PathValue("customerID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// GET /api/businesses/{businessID}/analytics
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sum, err := services.NewAnalyticsService(rt.servicesFor(r).responses).Summary(r.Context(), r.PathValue("businessID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/businesses/{businessID}/export?format=responses|answers|pdf&survey=
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := services.NewExportService(rt.servicesFor(r).responses).Export(r.Context(), services.ExportParams{
		BusinessID: r.PathValue("businessID"),
		SurveyID:   q.Get("survey"),
		Format:     q.Get("format"),
	})
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func (rt *Router) rewardsFor(r *http.Request) *services.RewardsService {
	s := rt.servicesFor(r)
	return services.NewRewardsService(s.client, s.responses, rt.opts.WriteTimeout, rt.log)
}

// GET /api/businesses/{businessID}/rewards
func (rt *Router) handleRewards(w http.ResponseWriter, r *http.Request) {
	d, err := rt.rewardsFor(r).Dashboard(r.Context(), r.PathValue("businessID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /api/businesses/{businessID}/responses/{responseID}/approve {points}
func (rt *Router) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points int `json:"points"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	views, err := rt.rewardsFor(r).Approve(r.Context(), r.PathValue("businessID"), r.PathValue("responseID"), req.Points)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// POST /api/businesses/{businessID}/responses/{responseID}/reject
func (rt *Router) handleReject(w http.ResponseWriter, r *http.Request) {
	views, err := rt.rewardsFor(r).Reject(r.Context(), r.PathValue("businessID"), r.PathValue("responseID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// DELETE /api/businesses/{businessID}/responses/{responseID}
func (rt *Router) handleDelete(w http.ResponseWriter, r *http.Request) {
	views, err := rt.rewardsFor(r).Delete(r.Context(), r.PathValue("businessID"), r.PathValue("responseID"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// POST /api/businesses/{businessID}/customers/points {customer, amount, operation}
func (rt *Router) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer  string `json:"customer"`
		Amount    int    `json:"amount"`
		Operation string `json:"operation"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	op, err := services.ParsePointsOperation(req.Operation)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	views, err := rt.rewardsFor(r).AdjustCustomerPoints(r.Context(), r.PathValue("businessID"), req.Customer, req.Amount, op)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeViews(w, views)
}

// POST /api/surveys
func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var draft services.SurveyDraft
	if err := decodeJSON(r, &draft); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	out, err := services.NewSurveyService(rt.servicesFor(r).client, rt.opts.PublicBaseURL, rt.log).Create(r.Context(), draft)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
