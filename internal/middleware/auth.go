package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/lostserver/diagnostic-gateway/internal/utils"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// Context keys populated by the auth middleware.
const (
	CtxUserID    = "user_id"
	CtxUserName  = "user_name"
	CtxUserEmail = "user_email"
)

// CookieAuth returns an Echo middleware that validates the session cookie
// and injects the token's identity claims into the request context.  The
// provided secret must match the one used when issuing tokens.  This
// middleware should wrap protected routes so that handlers can access
// authenticated user information via `c.Get(middleware.CtxUserID)`.
//
// The session is a cookie rather than an Authorization header: the token is
// set HTTP-only at login so browser scripts never see it, and the browser
// sends it back on every call.
func CookieAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := sessionFromCookie(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated"})
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// CookieIdentity is the non-rejecting variant: when a valid session cookie
// is present the identity is injected, otherwise the request proceeds
// anonymously.  The analysis endpoints use it so diagnoses work for guests
// while signed-in users get their results attributed and persisted.
func CookieIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := sessionFromCookie(c, secret); ok {
				setIdentity(c, claims)
			}
			return next(c)
		}
	}
}

// sessionFromCookie reads and verifies the session cookie.  A missing
// cookie, a bad signature and an expired token all count the same: no
// session.
func sessionFromCookie(c echo.Context, secret string) (utils.SessionClaims, bool) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return utils.SessionClaims{}, false
	}
	claims, err := utils.ParseSessionToken(secret, cookie.Value)
	if err != nil {
		return utils.SessionClaims{}, false
	}
	return claims, true
}

func setIdentity(c echo.Context, claims utils.SessionClaims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUserName, claims.Name)
	c.Set(CtxUserEmail, claims.Email)
}

// UserID extracts the authenticated user id from the context, or "" for
// anonymous requests.
func UserID(c echo.Context) string {
	if v, ok := c.Get(CtxUserID).(string); ok {
		return v
	}
	return ""
}
