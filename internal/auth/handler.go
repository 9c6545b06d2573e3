package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "gallery_session"

// Handler handles HTTP requests for authentication (login, logout).
// Handlers are thin: they bind the request, call the service, and write the
// response. No business logic lives here.
type Handler struct {
	service AuthService

	// sessionTTL bounds the cookie lifetime to match the Redis session TTL.
	sessionTTL time.Duration

	// secureCookies controls the Secure flag; disabled in development so
	// the cookie works over plain http://localhost.
	secureCookies bool
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, sessionTTL time.Duration, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// Login authenticates the admin and sets the session cookie (POST /api/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return apperror.NewValidation("username and password are required")
	}

	token, err := h.service.Login(c.Request().Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Verify reports whether the request carries a valid session (GET /api/verify).
// The SPA calls this on load to decide whether to show the admin UI.
func (h *Handler) Verify(c echo.Context) error {
	token := getSessionToken(c)
	if token == "" {
		return apperror.NewUnauthorized("authentication required")
	}

	session, err := h.service.ValidateSession(c.Request().Context(), token)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"username": session.Username,
	})
}

// Logout destroys the session and clears the cookie (POST /api/logout).
func (h *Handler) Logout(c echo.Context) error {
	token := getSessionToken(c)
	if token != "" {
		// Destroy the session in Redis. Ignore errors -- the cookie
		// will be cleared regardless.
		_ = h.service.DestroySession(c.Request().Context(), token)
	}

	h.clearSessionCookie(c)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- Cookie helpers ---

// setSessionCookie writes the session token as an HttpOnly cookie scoped to
// the whole site. SameSite=None is required for the cross-origin SPA to send
// the cookie with API requests, and None requires Secure.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secureCookies {
		cookie.SameSite = http.SameSiteNoneMode
	}
	c.SetCookie(cookie)
}

// clearSessionCookie expires the session cookie immediately.
func (h *Handler) clearSessionCookie(c echo.Context) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secureCookies {
		cookie.SameSite = http.SameSiteNoneMode
	}
	c.SetCookie(cookie)
}

// getSessionToken reads the session token from the request cookie.
// Returns empty string if the cookie is missing.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
