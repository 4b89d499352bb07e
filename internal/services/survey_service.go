package services

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var questionTypes = map[string]struct{}{
	"text": {}, "rating": {}, "multiple_choice": {}, "checkbox": {}, "yes_no": {},
}

type QuestionDraft struct {
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required,omitempty"`
}

type SurveyDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	BusinessID  string          `json:"business,omitempty"`
	Questions   []QuestionDraft `json:"questions"`
	// RewardPoints granted on completion, subject to approval.
	RewardPoints int `json:"rewardPoints,omitempty"`
}

type CreatedSurvey struct {
	Survey    SurveyRef `json:"survey"`
	ShareLink string    `json:"share_link"`
}

type SurveyBackend interface {
	CreateSurvey(ctx context.Context, draft SurveyDraft) (*SurveyRecord, error)
}

type SurveyService struct {
	backend       SurveyBackend
	publicBaseURL string
	log           *zap.Logger
}

func NewSurveyService(backend SurveyBackend, publicBaseURL string, log *zap.Logger) *SurveyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SurveyService{backend: backend, publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"), log: log}
}

// Create validates the draft, creates it through the backend and returns
// the public link customers open to answer it.
func (s *SurveyService) Create(ctx context.Context, draft SurveyDraft) (*CreatedSurvey, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Title == "" {
		return nil, NewInvalidError("title required")
	}
	if IsPlaceholderTitle(draft.Title) {
		return nil, NewInvalidError("title is reserved")
	}
	if draft.RewardPoints < 0 {
		return nil, NewInvalidError("reward points must not be negative")
	}
	for i := range draft.Questions {
		q := &draft.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		if q.Type == "" {
			q.Type = "text"
		}
		if q.Text == "" {
			return nil, NewInvalidError("question text required")
		}
		if _, ok := questionTypes[q.Type]; !ok {
			return nil, NewInvalidError("unsupported question type: " + q.Type)
		}
		if (q.Type == "multiple_choice" || q.Type == "checkbox") && len(q.Options) < 2 {
			return nil, NewInvalidError("choice questions need at least two options")
		}
	}

	rec, err := s.backend.CreateSurvey(ctx, draft)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.SurveyID() == "" {
		return nil, NewBadGatewayError("created survey has no id")
	}
	ref := SurveyRef{ID: rec.SurveyID(), Title: cleanTitle(rec.Title), Description: strings.TrimSpace(rec.Description)}
	if ref.Title == "" {
		ref.Title = draft.Title
	}
	out := &CreatedSurvey{Survey: ref, ShareLink: ShareLink(s.publicBaseURL, ref.ID)}
	s.log.Info("survey created", zap.String("survey_id", ref.ID), zap.String("business_id", draft.BusinessID))
	return out, nil
}

// ShareLink is the public answer URL of a survey, or "" without a base URL.
func ShareLink(baseURL, surveyID string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || surveyID == "" {
		return ""
	}
	return baseURL + "/survey/" + url.PathEscape(surveyID)
}
