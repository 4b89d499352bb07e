// Package backend is the REST client for the survey backend. Every failure
// is returned as a *services.ServiceError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/soaringjerry/Echoform/internal/services"
)

const maxBodyBytes = 16 << 20

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	Endpoints Endpoints
	Logger    *zap.Logger
}

type Client struct {
	base      *url.URL
	http      *retryablehttp.Client
	endpoints Endpoints
	token     string
	log       *zap.Logger
	newID     func() string
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("backend base url required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", raw)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("backend")

	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.RetryMax
	if hc.RetryMax < 0 {
		hc.RetryMax = 0
	}
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc.Logger = zapLeveled{s: log.Sugar()}
	if opts.Timeout > 0 {
		hc.HTTPClient.Timeout = opts.Timeout
	}

	return &Client{
		base:      base,
		http:      hc,
		endpoints: opts.Endpoints.Merge(DefaultEndpoints()),
		log:       log,
		newID:     func() string { return uuid.NewString() },
	}, nil
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

func (c *Client) Token() string { return c.token }

func (c *Client) Endpoints() Endpoints { return c.endpoints }

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

// do sends one request and decodes the envelope's payload into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return services.NewInvalidError("encode request: " + err.Error())
		}
		payload = bytes.NewReader(b)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.url(path), payload)
	if err != nil {
		return services.NewInvalidError("build request: " + err.Error())
	}
	reqID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("backend request failed", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return services.NewNetworkError(transportMessage(ctx, err))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return services.NewNetworkError("read response: " + err.Error())
	}
	c.log.Debug("backend request", zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)), zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}
	return decodeEnvelope(raw, out)
}

func transportMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(ctx.Err(), context.Canceled):
		return "request canceled"
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return "request timed out"
	}
	return "backend unreachable: " + err.Error()
}

// statusError maps a non-2xx status onto the error taxonomy.
func statusError(status int, body []byte) error {
	msg := serverMessage(body)
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	var code services.ErrorCode
	switch status {
	case http.StatusUnauthorized:
		code = services.ErrorUnauthorized
	case http.StatusForbidden:
		code = services.ErrorForbidden
	case http.StatusNotFound:
		code = services.ErrorNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = services.ErrorInvalid
	default:
		code = services.ErrorBadGateway
		msg = fmt.Sprintf("backend returned %d: %s", status, msg)
	}
	return &services.ServiceError{Code: code, Message: msg, Status: status}
}

var (
	_ services.SurveySource   = (*Client)(nil)
	_ services.ResponseSource = (*Client)(nil)
	_ services.RewardsBackend = (*Client)(nil)
	_ services.SurveyBackend  = (*Client)(nil)
	_ services.AuthBackend    = (*Client)(nil)
)
