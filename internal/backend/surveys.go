package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/soaringjerry/Echoform/internal/services"
)

func (c *Client) ListSurveysByBusiness(ctx context.Context, businessID string) ([]services.SurveyRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, expand(c.endpoints.SurveysByBusiness, businessID), nil, &raw); err != nil {
		return nil, err
	}
	items, err := listPayload(raw, "surveys", "items", "data")
	if err != nil {
		return nil, err
	}
	out := make([]services.SurveyRecord, 0, len(items))
	for _, it := range items {
		var sv services.SurveyRecord
		if err := json.Unmarshal(it, &sv); err != nil {
			c.log.Debug("skipping malformed survey")
			continue
		}
		out = append(out, sv)
	}
	return out, nil
}

func (c *Client) GetSurvey(ctx context.Context, surveyID string) (*services.SurveyRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, expand(c.endpoints.Survey, surveyID), nil, &raw); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, services.NewNotFoundError("survey not found")
	}
	var sv services.SurveyRecord
	if err := json.Unmarshal(objectPayload(raw, "survey"), &sv); err != nil {
		return nil, services.NewBadGatewayError("malformed survey")
	}
	return &sv, nil
}

// CreateSurvey posts draft to the configured creation endpoints in order.
func (c *Client) CreateSurvey(ctx context.Context, draft services.SurveyDraft) (*services.SurveyRecord, error) {
	var raw json.RawMessage
	if err := c.tryCandidates(ctx, http.MethodPost, c.endpoints.SurveyCreate, draft, &raw); err != nil {
		return nil, err
	}
	var sv services.SurveyRecord
	if !isNull(raw) {
		if err := json.Unmarshal(objectPayload(raw, "survey"), &sv); err != nil {
			return nil, services.NewBadGatewayError("malformed survey")
		}
	}
	return &sv, nil
}
