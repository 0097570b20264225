// Package handlers provides the HTTP API handlers for rapport.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/accounts"
	"github.com/mesh-intelligence/rapport/internal/auth"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// AuthHandler serves /auth/register and /auth/login and issues JWTs.
type AuthHandler struct {
	accounts  *accounts.Service
	jwtSecret string
	expiresIn time.Duration
	clock     types.Clock
	logger    *slog.Logger
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   string      `json:"expires_at"`
	User        *types.User `json:"user"`
}

// NewAuthHandler creates an auth handler with the accounts service and JWT config.
func NewAuthHandler(log *slog.Logger, accountService *accounts.Service, jwtSecret string, expiresIn time.Duration, clock types.Clock) *AuthHandler {
	return &AuthHandler{
		accounts:  accountService,
		jwtSecret: jwtSecret,
		expiresIn: expiresIn,
		clock:     clock,
		logger:    log.With(slog.String("handler", "auth")),
	}
}

// Register mounts the auth routes on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/register", h.SignUp)
	e.POST("/auth/login", h.Login)
}

// SignUp creates an account and returns a token for it.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Password) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	u, err := h.accounts.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return h.issue(c, http.StatusCreated, u)
}

// Login validates credentials and issues a JWT.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	u, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return h.issue(c, http.StatusOK, u)
}

func (h *AuthHandler) issue(c echo.Context, status int, u *types.User) error {
	token, expiresAt, err := auth.GenerateToken(u.UserID, u.Email, h.jwtSecret, h.clock.Now(), h.expiresIn)
	if err != nil {
		h.logger.Error("issue token failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue token")
	}
	out := *u
	out.PasswordHash = ""
	return c.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        &out,
	})
}
