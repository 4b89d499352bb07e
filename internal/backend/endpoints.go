package backend

import (
	"net/url"
	"strings"
)

// Endpoints are backend paths relative to the base URL. "{id}" is
// replaced by the escaped resource ID.
type Endpoints struct {
	SurveysByBusiness   string   `yaml:"surveys_by_business"`
	Survey              string   `yaml:"survey"`
	SurveyCreate        []string `yaml:"survey_create"`
	ResponsesBySurvey   string   `yaml:"responses_by_survey"`
	ResponsesByBusiness string   `yaml:"responses_by_business"`
	ApprovePoints       string   `yaml:"approve_points"`
	RejectPoints        string   `yaml:"reject_points"`
	DeleteResponse      string   `yaml:"delete_response"`
	CustomerPoints      string   `yaml:"customer_points"`
	CurrentUser         string   `yaml:"current_user"`
	Login               string   `yaml:"login"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		SurveysByBusiness:   "/api/surveys/business/{id}",
		Survey:              "/api/surveys/{id}",
		SurveyCreate:        []string{"/api/surveys", "/api/surveys/create", "/api/survey/create"},
		ResponsesBySurvey:   "/api/responses/survey/{id}",
		ResponsesByBusiness: "/api/responses/business/{id}",
		ApprovePoints:       "/api/responses/{id}/approve-points",
		RejectPoints:        "/api/responses/{id}/reject-points",
		DeleteResponse:      "/api/responses/{id}",
		CustomerPoints:      "/api/customers/points",
		CurrentUser:         "/api/auth/me",
		Login:               "/api/auth/login",
	}
}

// Merge fills empty fields of e from defaults.
func (e Endpoints) Merge(defaults Endpoints) Endpoints {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return strings.TrimSpace(v)
	}
	out := Endpoints{
		SurveysByBusiness:   pick(e.SurveysByBusiness, defaults.SurveysByBusiness),
		Survey:              pick(e.Survey, defaults.Survey),
		SurveyCreate:        e.SurveyCreate,
		ResponsesBySurvey:   pick(e.ResponsesBySurvey, defaults.ResponsesBySurvey),
		ResponsesByBusiness: pick(e.ResponsesByBusiness, defaults.ResponsesByBusiness),
		ApprovePoints:       pick(e.ApprovePoints, defaults.ApprovePoints),
		RejectPoints:        pick(e.RejectPoints, defaults.RejectPoints),
		DeleteResponse:      pick(e.DeleteResponse, defaults.DeleteResponse),
		CustomerPoints:      pick(e.CustomerPoints, defaults.CustomerPoints),
		CurrentUser:         pick(e.CurrentUser, defaults.CurrentUser),
		Login:               pick(e.Login, defaults.Login),
	}
	if len(out.SurveyCreate) == 0 {
		out.SurveyCreate = append([]string(nil), defaults.SurveyCreate...)
	}
	return out
}

func expand(path, id string) string {
	return strings.ReplaceAll(path, "{id}", url.PathEscape(id))
}
