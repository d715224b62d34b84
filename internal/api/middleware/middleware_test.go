package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"villagework/internal/logging"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

func TestClientLimiterPerClientAndSweep(t *testing.T) {
	l := NewClientLimiter(60, 2, time.Minute, logging.NewMultiLogger())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 was not allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request in the same instant was allowed")
	}
	if !l.Allow("b") {
		t.Fatal("a second client shares the first client's bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Error("token was not refilled after one second at 60 rpm")
	}

	stats := l.Stats()
	if stats.Clients != 2 || stats.Requests != 4 || stats.Rejected != 1 || stats.Burst != 2 {
		t.Errorf("stats = %+v", stats)
	}

	now = now.Add(30 * time.Second)
	l.Allow("b")
	now = now.Add(45 * time.Second)
	if removed := l.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if l.Stats().Clients != 1 {
		t.Errorf("clients after sweep = %d", l.Stats().Clients)
	}
	if l.RetryAfter() != time.Second {
		t.Errorf("RetryAfter = %v", l.RetryAfter())
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"Basic abc":      "",
		"Bearer":         "",
		"":               "",
		"  Bearer xyz  ": "xyz",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

type stubAuth map[string]*models.User

func (s stubAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func run(e *echo.Echo, req *http.Request, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return rec, h(c)
}

func TestRequireAuthAndRole(t *testing.T) {
	e := echo.New()
	auth := RequireAuth(stubAuth{"w": {ID: "u1", Role: models.RoleWorker}})
	ok := func(c echo.Context) error {
		if CurrentUser(c).ID != "u1" || SessionToken(c) != "w" {
			t.Errorf("user = %+v, token = %q", CurrentUser(c), SessionToken(c))
		}
		return c.NoContent(http.StatusNoContent)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := run(e, req, ok, auth)
	var ce *utils.CustomError
	if !errors.As(err, &ce) || ce.Code != http.StatusUnauthorized {
		t.Errorf("no header err = %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer w")
	rec, err := run(e, req, ok, auth, RequireRole(models.RoleWorker))
	if err != nil || rec.Code != http.StatusNoContent {
		t.Errorf("worker route = %d, %v", rec.Code, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer w")
	_, err = run(e, req, ok, auth, RequireRole(models.RoleOwner, models.RoleAdmin))
	if !errors.As(err, &ce) || ce.Code != http.StatusForbidden {
		t.Errorf("owner route err = %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	e := echo.New()
	mw := RequestValidation(16, logging.NewMultiLogger())
	echoID := func(c echo.Context) error { return c.String(http.StatusOK, GetRequestID(c)) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied-id")
	rec, err := run(e, req, echoID, mw)
	if err != nil || rec.Body.String() != "client-supplied-id" {
		t.Errorf("request id = %q, %v", rec.Body.String(), err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "bad id!")
	rec, _ = run(e, req, echoID, mw)
	if id := rec.Body.String(); id == "bad id!" || id == "" || rec.Header().Get(echo.HeaderXRequestID) != id {
		t.Errorf("generated id = %q, header %q", id, rec.Header().Get(echo.HeaderXRequestID))
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 17)))
	_, err = run(e, req, echoID, mw)
	var ce *utils.CustomError
	if !errors.As(err, &ce) || ce.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body err = %v", err)
	}
}
