package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/soaringjerry/Echoform/internal/services"
)

// Login exchanges credentials for a token. Older deployments call the
// token "accessToken".
func (c *Client) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token       string                `json:"token"`
		AccessToken string                `json:"accessToken"`
		User        *services.UserProfile `json:"user"`
	}
	if err := c.WithToken("").do(ctx, http.MethodPost, c.endpoints.Login, body, &out); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(out.Token)
	if token == "" {
		token = strings.TrimSpace(out.AccessToken)
	}
	return &services.LoginResult{Token: token, User: out.User}, nil
}

// CurrentUser loads the profile behind token, or behind the client's own
// token when token is empty.
func (c *Client) CurrentUser(ctx context.Context, token string) (*services.UserProfile, error) {
	cl := c
	if strings.TrimSpace(token) != "" {
		cl = c.WithToken(token)
	}
	var raw json.RawMessage
	if err := cl.do(ctx, http.MethodGet, c.endpoints.CurrentUser, nil, &raw); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, services.NewBadGatewayError("empty profile")
	}
	var u services.UserProfile
	if err := json.Unmarshal(objectPayload(raw, "user"), &u); err != nil {
		return nil, services.NewBadGatewayError("malformed profile")
	}
	return &u, nil
}
