package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

func (c *Client) ListResponsesBySurvey(ctx context.Context, surveyID string) ([]json.RawMessage, error) {
	return c.listResponses(ctx, expand(c.endpoints.ResponsesBySurvey, surveyID))
}

func (c *Client) ListResponsesByBusiness(ctx context.Context, businessID string) ([]json.RawMessage, error) {
	return c.listResponses(ctx, expand(c.endpoints.ResponsesByBusiness, businessID))
}

func (c *Client) listResponses(ctx context.Context, path string) ([]json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return listPayload(raw, "responses", "items", "data")
}
