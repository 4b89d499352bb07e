package backend

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Echoform/internal/services"
)

func (c *Client) ApproveResponsePoints(ctx context.Context, responseID string, points int) error {
	body := map[string]any{"points": points, "approved": true}
	return c.do(ctx, http.MethodPost, expand(c.endpoints.ApprovePoints, responseID), body, nil)
}

func (c *Client) RejectResponsePoints(ctx context.Context, responseID string) error {
	body := map[string]any{"approved": false}
	return c.do(ctx, http.MethodPost, expand(c.endpoints.RejectPoints, responseID), body, nil)
}

func (c *Client) DeleteResponse(ctx context.Context, responseID string) error {
	return c.do(ctx, http.MethodDelete, expand(c.endpoints.DeleteResponse, responseID), nil, nil)
}

func (c *Client) AdjustCustomerPoints(ctx context.Context, customer string, amount int, op services.PointsOperation) error {
	body := map[string]any{"customer": customer, "amount": amount, "operation": string(op)}
	return c.do(ctx, http.MethodPost, c.endpoints.CustomerPoints, body, nil)
}
