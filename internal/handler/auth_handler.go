package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/service"
	"recipeapp/internal/view"
)

// AuthHandler handles login, logout and registration.
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	cookieName  string
	sessionTTL  time.Duration
	log         logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	authService service.AuthService,
	userService service.UserService,
	cookieName string,
	sessionTTL time.Duration,
	log logger.Logger,
) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cookieName:  cookieName,
		sessionTTL:  sessionTTL,
		log:         log.With(logger.Fields{"component": "auth_handler"}),
	}
}

// RegisterRequest represents a registration form.
type RegisterRequest struct {
	Username string `form:"username" validate:"required,min=3,max=20"`
	Password string `form:"password" validate:"required,min=6"`
}

// LoginRequest represents a login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	page := newPage(c, "Log in")
	page.LoggedOut = c.QueryParams().Has("logout")
	return c.Render(http.StatusOK, view.PageLogin, page)
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if msg := bindForm(c, &req); msg != "" {
		flashError(c, msg)
		return c.Redirect(http.StatusFound, "/login?error")
	}

	token, _, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotAuthenticated) {
			h.log.Error("login failed", logger.Fields{"username": req.Username, "error": err.Error()})
		}
		flashError(c, apperrors.ErrNotAuthenticated.Error())
		return c.Redirect(http.StatusFound, "/login?error")
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, "/home")
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if claims := SessionClaims(c); claims != nil {
		if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
			h.log.Warn("logout revoke failed", logger.Fields{"username": claims.Username, "error": err.Error()})
		}
	}
	clearCookie(c, h.cookieName)
	return c.Redirect(http.StatusFound, "/login?logout")
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageRegister, newPage(c, "Register"))
}

// Register creates a ROLE_USER account and sends the user to the login page.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if msg := bindForm(c, &req); msg != "" {
		flashError(c, msg)
		return c.Redirect(http.StatusFound, "/register")
	}

	if _, err := h.userService.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			flashError(c, err.Error())
		case errors.Is(err, apperrors.ErrDuplicateUsername):
			flashError(c, "That username is already taken. Please choose another.")
		default:
			h.log.Error("registration failed", logger.Fields{"username": req.Username, "error": err.Error()})
			flashError(c, "Registration failed. Please try again.")
		}
		return c.Redirect(http.StatusFound, "/register")
	}

	flashSuccess(c, "Registration complete. Please log in.")
	return c.Redirect(http.StatusFound, "/login")
}
