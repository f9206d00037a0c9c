package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeapp/internal/service"
)

// UserHandler serves the admin user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ListUsers godoc
// @Summary List registered users
// @Tags admin
// @Produce plain
// @Success 200 {string} string "one line per user"
// @Failure 500 {string} string "failure"
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, service.FormatUserListing(users))
}
