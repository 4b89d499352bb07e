package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Echoform/internal/services"
)

type recorded struct {
	method string
	path   string
	auth   string
	reqID  string
	body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	mux      *http.ServeMux
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recorded{
			method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"),
			reqID: r.Header.Get("X-Request-ID"), body: string(b),
		})
		fb.mu.Unlock()
		fb.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) paths() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]string, 0, len(fb.requests))
	for _, r := range fb.requests {
		out = append(out, r.method+" "+r.path)
	}
	return out
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	c.newID = func() string { return "req-1" }
	return c.WithToken("tok")
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestListSurveysEnvelopes(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("GET /api/surveys/business/b1", reply(200, `{"success":true,"data":[{"_id":"s1","title":"A"},{"id":"s2","title":"B"}]}`))
	fb.mux.Handle("GET /api/surveys/business/b2", reply(200, `[{"_id":"s3","title":"C","business":{"_id":"b2"}}]`))
	fb.mux.Handle("GET /api/surveys/business/b3", reply(200, `{"surveys":[{"_id":"s4","title":"D"}]}`))
	c := newTestClient(t, srv)

	got, err := c.ListSurveysByBusiness(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[1].SurveyID())

	got, err = c.ListSurveysByBusiness(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "C", got[0].Title)

	got, err = c.ListSurveysByBusiness(context.Background(), "b3")
	require.NoError(t, err)
	assert.Equal(t, "s4", got[0].SurveyID())

	for _, r := range fb.requests {
		assert.Equal(t, "Bearer tok", r.auth)
		assert.Equal(t, "req-1", r.reqID)
	}
}

func TestSuccessFalseIsInvalid(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("GET /api/surveys/s1", reply(200, `{"success":false,"message":"Survey archived"}`))
	c := newTestClient(t, srv)

	_, err := c.GetSurvey(context.Background(), "s1")
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorInvalid, se.Code)
	assert.Equal(t, "Survey archived", se.Message)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   services.ErrorCode
		msg    string
	}{
		{401, `{"message":"jwt expired"}`, services.ErrorUnauthorized, "jwt expired"},
		{403, ``, services.ErrorForbidden, "forbidden"},
		{404, `{"error":"no such survey"}`, services.ErrorNotFound, "no such survey"},
		{400, `{"message":"Points must be a number"}`, services.ErrorInvalid, "Points must be a number"},
		{422, `plain text reason`, services.ErrorInvalid, "plain text reason"},
		{502, `<html>bad</html>`, services.ErrorBadGateway, "backend returned 502: bad gateway"},
		{500, `{"message":"db down"}`, services.ErrorBadGateway, "backend returned 500: db down"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			fb, srv := newFakeBackend(t)
			fb.mux.Handle("GET /api/surveys/x", reply(tc.status, tc.body))
			_, err := newTestClient(t, srv).GetSurvey(context.Background(), "x")
			se, ok := services.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, se.Code)
			assert.Equal(t, tc.msg, se.Message)
			assert.Equal(t, tc.status, se.Status)
		})
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.ListResponsesByBusiness(context.Background(), "b1")
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorNetwork, se.Code)
}

func TestTimeoutIsNetwork(t *testing.T) {
	fb, srv := newFakeBackend(t)
	release := make(chan struct{})
	defer close(release)
	fb.mux.HandleFunc("GET /api/responses/business/b1", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c := newTestClient(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ListResponsesByBusiness(ctx, "b1")
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorNetwork, se.Code)
	assert.Equal(t, "request timed out", se.Message)
}

func TestMalformedPayloadIsBadGateway(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("GET /api/responses/business/b1", reply(200, `{"success":true,"data":{"count":3}}`))
	fb.mux.Handle("GET /api/surveys/s1", reply(200, `{"_id": 12}`))
	c := newTestClient(t, srv)

	_, err := c.ListResponsesByBusiness(context.Background(), "b1")
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorBadGateway, se.Code)

	_, err = c.GetSurvey(context.Background(), "s1")
	se, ok = services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorBadGateway, se.Code)
}

func TestListResponsesKeepsRecordsRaw(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("GET /api/responses/survey/s1", reply(200, `{"success":true,"data":{"responses":[{"_id":"r1"},{"_id":"r2","answers":"odd"}]}}`))
	fb.mux.Handle("GET /api/responses/business/b1", reply(200, `{"success":true,"data":null}`))
	c := newTestClient(t, srv)

	got, err := c.ListResponsesBySurvey(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"_id":"r2","answers":"odd"}`, string(got[1]))

	got, err = c.ListResponsesByBusiness(context.Background(), "b1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPointsWrites(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("POST /api/responses/r1/approve-points", reply(200, `{"success":true}`))
	fb.mux.Handle("POST /api/responses/r1/reject-points", reply(200, ``))
	fb.mux.Handle("DELETE /api/responses/r1", reply(204, ``))
	fb.mux.Handle("POST /api/customers/points", reply(200, `{"success":true,"data":{"balance":40}}`))
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.ApproveResponsePoints(ctx, "r1", 25))
	require.NoError(t, c.RejectResponsePoints(ctx, "r1"))
	require.NoError(t, c.DeleteResponse(ctx, "r1"))
	require.NoError(t, c.AdjustCustomerPoints(ctx, "c@example.com", 10, services.PointsAdd))

	var approve, adjust map[string]any
	require.NoError(t, json.Unmarshal([]byte(fb.requests[0].body), &approve))
	assert.Equal(t, float64(25), approve["points"])
	require.NoError(t, json.Unmarshal([]byte(fb.requests[3].body), &adjust))
	assert.Equal(t, map[string]any{"customer": "c@example.com", "amount": float64(10), "operation": "add"}, adjust)
}

func TestLoginAndCurrentUser(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.Handle("POST /api/auth/login", reply(200, `{"success":true,"data":{"accessToken":"abc","user":{"_id":"u1","business":"b1"}}}`))
	fb.mux.Handle("GET /api/auth/me", reply(200, `{"user":{"id":"u1","businessId":"b9"}}`))
	c := newTestClient(t, srv)

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	assert.Equal(t, "b1", res.User.BusinessID())
	assert.Empty(t, fb.requests[0].auth, "login is sent without a bearer token")

	u, err := c.CurrentUser(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "b9", u.BusinessID())
	assert.Equal(t, "Bearer other", fb.requests[1].auth)
}

func TestWithTokenCopies(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv)
	other := c.WithToken(" x ")
	assert.Equal(t, "tok", c.Token())
	assert.Equal(t, "x", other.Token())
}
