package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/model"
	"recipeapp/internal/service"
)

// APIHandler serves the JSON and admin text endpoints under /api.
type APIHandler struct {
	svc service.RecipeService
	log logger.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(svc service.RecipeService, log logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &APIHandler{svc: svc, log: log.With(logger.Fields{"component": "api_handler"})}
}

// RecipeResponse is the JSON shape of a recipe.
type RecipeResponse struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Ingredients  string   `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Favorite     bool     `json:"favorite"`
	Reference    string   `json:"reference"`
	Categories   []string `json:"categories"`
	ImagePath    string   `json:"imagePath,omitempty"`
}

// CategoriesResponse is the category usage listing.
type CategoriesResponse struct {
	Categories      []service.CategoryUsage `json:"categories"`
	TotalCategories int                     `json:"totalCategories"`
}

func toRecipeResponse(r *model.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:           r.ID,
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Favorite:     r.Favorite,
		Reference:    r.Reference,
		Categories:   r.CategoryNames(),
		ImagePath:    r.ImagePath,
	}
}

func (h *APIHandler) fail(c echo.Context, op string, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		h.log.Error(op+" failed", logger.Fields{"error": err.Error()})
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// Stats godoc
// @Summary Recipe statistics
// @Tags api
// @Produce json
// @Success 200 {object} service.Stats
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/stats [get]
func (h *APIHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, "stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Export godoc
// @Summary Export every recipe
// @Tags api
// @Produce json
// @Success 200 {array} service.ExportRecord
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/export [get]
func (h *APIHandler) Export(c echo.Context) error {
	records, err := h.svc.Export(c.Request().Context())
	if err != nil {
		return h.fail(c, "export", err)
	}
	return c.JSON(http.StatusOK, records)
}

// Categories godoc
// @Summary Category usage, most used first
// @Tags api
// @Produce json
// @Success 200 {object} CategoriesResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/categories [get]
func (h *APIHandler) Categories(c echo.Context) error {
	usage, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return h.fail(c, "categories", err)
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Categories: usage, TotalCategories: len(usage)})
}

// Search godoc
// @Summary Search recipes
// @Tags api
// @Produce json
// @Param title query string false "Title contains"
// @Param category query string false "Any category contains"
// @Param ingredient query string false "Ingredients contain"
// @Param favorite query bool false "Favorite flag"
// @Success 200 {array} RecipeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/search [get]
func (h *APIHandler) Search(c echo.Context) error {
	filter := service.SearchFilter{
		Title:      c.QueryParam("title"),
		Category:   c.QueryParam("category"),
		Ingredient: c.QueryParam("ingredient"),
	}
	if raw := c.QueryParam("favorite"); raw != "" {
		favorite, err := strconv.ParseBool(raw)
		if err != nil {
			return h.fail(c, "search", apperrors.Invalid("favorite must be true or false"))
		}
		filter.Favorite = &favorite
	}

	recipes, err := h.svc.Search(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "search", err)
	}
	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, toRecipeResponse(&recipes[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Import godoc
// @Summary Import exported recipes
// @Tags api
// @Accept json
// @Produce json
// @Param records body []service.ExportRecord true "Exported recipes"
// @Success 200 {object} service.ImportResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/import [post]
func (h *APIHandler) Import(c echo.Context) error {
	var records []service.ExportRecord
	if err := c.Bind(&records); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	result, err := h.svc.Import(c.Request().Context(), records)
	if err != nil {
		return h.fail(c, "import", err)
	}
	return c.JSON(http.StatusOK, result)
}

// ResetData godoc
// @Summary Delete every recipe and image
// @Tags admin
// @Produce plain
// @Success 200 {string} string "summary"
// @Failure 500 {string} string "failure"
// @Router /api/admin/reset-data [post]
func (h *APIHandler) ResetData(c echo.Context) error {
	result, err := h.svc.Reset(c.Request().Context())
	if err != nil {
		h.log.Error("data reset failed", logger.Fields{"error": err.Error()})
		return c.String(http.StatusInternalServerError, "Data reset failed: "+err.Error())
	}
	return c.String(http.StatusOK, fmt.Sprintf("Data reset complete. Recipes deleted: %d, images deleted: %d",
		result.RecipesDeleted, result.ImagesDeleted))
}
