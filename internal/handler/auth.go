package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel comparisons against repository errors
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls and cookie lifetimes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/lostserver/diagnostic-gateway/internal/config"
	"github.com/lostserver/diagnostic-gateway/internal/middleware"
	"github.com/lostserver/diagnostic-gateway/internal/model"
	"github.com/lostserver/diagnostic-gateway/internal/repository"
	"github.com/lostserver/diagnostic-gateway/internal/utils"
	"github.com/lostserver/diagnostic-gateway/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users repository.UserStore
}

func NewAuthHandler(cfg config.Config, users repository.UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	model.Profile
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register: create user, set the session cookie and return the token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid data"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid data"})
	}
	if err := validation.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	if err := validation.ValidateProfile(req.Profile); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Profile, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "User already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Could not create user"})
	}

	token, err := utils.IssueSessionToken(h.Cfg.JWTSecret, u.ID.Hex(), u.Name, u.Email, config.SessionTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Could not issue session"})
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "token": token})
}

// Login: verify credentials, set the session cookie and return the token.
// "User not found" and "Invalid password" are both 401s; the message tells
// them apart so the login form can point at the right field.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid data"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid password"})
	}

	token, err := utils.IssueSessionToken(h.Cfg.JWTSecret, u.ID.Hex(), u.Name, u.Email, config.SessionTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Could not issue session"})
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "token": token})
}

// Logout clears the session cookie.  There is no server-side session state
// to revoke, so this always succeeds and is idempotent: logging out twice
// is two successful no-ops.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out"})
}

// WhoAmI resolves the session back to a current user record.  The token
// only carries identity claims, so the profile is re-fetched from the
// store rather than trusted from the cookie.
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User found", "user": u})
}

// UpdateProfile overwrites the caller's optional patient attributes.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated"})
	}

	var profile model.Profile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid data"})
	}
	if err := validation.ValidateProfile(profile); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated"})
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.SessionTTL / time.Second), // 24 hours
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
