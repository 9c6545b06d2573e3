package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
)

// mockAuthService implements AuthService for handler tests.
type mockAuthService struct {
	loginFn           func(ctx context.Context, input LoginInput) (string, error)
	validateSessionFn func(ctx context.Context, token string) (*Session, error)
	destroySessionFn  func(ctx context.Context, token string) error
}

func (m *mockAuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, input)
	}
	return "", apperror.NewUnauthorized("invalid username or password")
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, token)
	}
	return nil, apperror.NewUnauthorized("session expired or invalid")
}

func (m *mockAuthService) DestroySession(ctx context.Context, token string) error {
	if m.destroySessionFn != nil {
		return m.destroySessionFn(ctx, token)
	}
	return nil
}

// verifyRequest runs the Verify handler against a GET /api/verify request,
// optionally carrying a session cookie.
func verifyRequest(t *testing.T, h *Handler, cookie *http.Cookie) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/verify", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return rec, h.Verify(e.NewContext(req, rec))
}

func TestVerify_ValidSession(t *testing.T) {
	var validatedToken string
	svc := &mockAuthService{
		validateSessionFn: func(ctx context.Context, token string) (*Session, error) {
			validatedToken = token
			return &Session{Username: "admin", CreatedAt: time.Now().UTC()}, nil
		},
	}
	h := NewHandler(svc, time.Hour, false)

	rec, err := verifyRequest(t, h, &http.Cookie{Name: sessionCookieName, Value: "tok123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if validatedToken != "tok123" {
		t.Errorf("expected cookie token to be validated, got %q", validatedToken)
	}
	if !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Errorf("expected username in response, got %s", rec.Body.String())
	}
}

func TestVerify_MissingCookie(t *testing.T) {
	validated := false
	svc := &mockAuthService{
		validateSessionFn: func(ctx context.Context, token string) (*Session, error) {
			validated = true
			return nil, apperror.NewUnauthorized("session expired or invalid")
		},
	}
	h := NewHandler(svc, time.Hour, false)

	_, err := verifyRequest(t, h, nil)
	assertAppError(t, err, 401)
	if validated {
		t.Error("session lookup must be skipped when no cookie is present")
	}
}

func TestVerify_InvalidSession(t *testing.T) {
	h := NewHandler(&mockAuthService{}, time.Hour, false)

	_, err := verifyRequest(t, h, &http.Cookie{Name: sessionCookieName, Value: "expired"})
	assertAppError(t, err, 401)
}
