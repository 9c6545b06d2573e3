package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
)

// contextKeySession is the Echo context key for the validated session.
const contextKeySession = "auth_session"

// RequireAdmin returns middleware that validates the session cookie and
// injects the session into the request context. All album and image
// mutation routes sit behind it. Unauthenticated requests get a 401; the
// SPA handles the redirect to its login page.
func RequireAdmin(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				return apperror.NewUnauthorized("session expired or invalid")
			}

			c.Set(contextKeySession, session)

			return next(c)
		}
	}
}

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}
