package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/service"
	"recipeapp/internal/view"
)

const homeAfterSave = "/home?loading=true"

// RecipeHandler serves the recipe pages.
type RecipeHandler struct {
	svc service.RecipeService
	log logger.Logger
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(svc service.RecipeService, log logger.Logger) *RecipeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RecipeHandler{svc: svc, log: log.With(logger.Fields{"component": "recipe_handler"})}
}

// RecipeFormRequest is the create/update form submission.
type RecipeFormRequest struct {
	ID                 uint     `form:"id"`
	Title              string   `form:"title" validate:"max=255"`
	Ingredients        string   `form:"ingredients" validate:"max=1000"`
	Instructions       string   `form:"instructions" validate:"max=2000"`
	Favorite           bool     `form:"favorite"`
	Reference          string   `form:"reference" validate:"max=1000"`
	Categories         []string `form:"categories" validate:"dive,max=50"`
	DeleteCurrentImage bool     `form:"deleteCurrentImage"`
}

func (r *RecipeFormRequest) input() service.RecipeInput {
	return service.RecipeInput{
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Favorite:     r.Favorite,
		Reference:    r.Reference,
		Categories:   r.Categories,
	}
}

func (r *RecipeFormRequest) form() *view.RecipeForm {
	return &view.RecipeForm{
		ID:           r.ID,
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Reference:    r.Reference,
		Favorite:     r.Favorite,
		Categories:   service.DistinctCategories(r.Categories),
	}
}

// Index redirects to the listing.
func (h *RecipeHandler) Index(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/home")
}

// Home renders every recipe.
func (h *RecipeHandler) Home(c echo.Context) error {
	recipes, err := h.svc.List(c.Request().Context())
	if err != nil {
		return h.internal(err, "list recipes")
	}
	page := newPage(c, "All recipes")
	page.Recipes = recipes
	return c.Render(http.StatusOK, view.PageHome, page)
}

// Favorites renders favorite recipes only.
func (h *RecipeHandler) Favorites(c echo.Context) error {
	recipes, err := h.svc.ListFavorites(c.Request().Context())
	if err != nil {
		return h.internal(err, "list favorites")
	}
	page := newPage(c, "Favorites")
	page.Recipes = recipes
	page.FavoritesPage = true
	return c.Render(http.StatusOK, view.PageHome, page)
}

// Category renders recipes tagged with the category in the path.
func (h *RecipeHandler) Category(c echo.Context) error {
	category := c.Param("category")
	if unescaped, err := url.PathUnescape(category); err == nil {
		category = unescaped
	}

	recipes, err := h.svc.ListByCategory(c.Request().Context(), category)
	if err != nil {
		return h.internal(err, "list category")
	}
	page := newPage(c, category)
	page.Recipes = recipes
	page.CategoryName = category
	return c.Render(http.StatusOK, view.PageHome, page)
}

// NewForm renders an empty create form, or the values flashed back by a rejected submission.
func (h *RecipeHandler) NewForm(c echo.Context) error {
	page := newPage(c, "New recipe")
	page.Form = takeFlashForm(c)
	if page.Form == nil {
		page.Form = &view.RecipeForm{}
	}
	page.Form.ID = 0
	return c.Render(http.StatusOK, view.PageRecipeForm, page)
}

// Create handles the create form.
func (h *RecipeHandler) Create(c echo.Context) error {
	var req RecipeFormRequest
	if msg := bindForm(c, &req); msg != "" {
		flashError(c, msg)
		return c.Redirect(http.StatusFound, "/recipes/new")
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		flashError(c, "The uploaded image could not be read.")
		return c.Redirect(http.StatusFound, "/recipes/new")
	}
	defer closeImage()

	if _, err := h.svc.Create(c.Request().Context(), req.input(), image); err != nil {
		if errors.Is(err, apperrors.ErrTooManyCategories) {
			flashForm(c, req.form())
		}
		flashError(c, h.userMessage(err, "The recipe could not be saved."))
		return c.Redirect(http.StatusFound, "/recipes/new")
	}

	flashSuccess(c, "Recipe saved.")
	return c.Redirect(http.StatusFound, homeAfterSave)
}

// EditForm renders the edit form for an existing recipe.
func (h *RecipeHandler) EditForm(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	recipe, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrRecipeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		}
		return h.internal(err, "load recipe")
	}

	page := newPage(c, "Edit "+recipe.Title)
	page.Form = view.FormFromRecipe(recipe)
	return c.Render(http.StatusOK, view.PageRecipeForm, page)
}

// Update handles the edit form.
func (h *RecipeHandler) Update(c echo.Context) error {
	var req RecipeFormRequest
	msg := bindForm(c, &req)
	if req.ID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	editURL := "/recipes/edit/" + strconv.FormatUint(uint64(req.ID), 10)
	if msg != "" {
		flashError(c, msg)
		return c.Redirect(http.StatusFound, editURL)
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		flashError(c, "The uploaded image could not be read.")
		return c.Redirect(http.StatusFound, editURL)
	}
	defer closeImage()

	_, err = h.svc.Update(c.Request().Context(), req.ID, service.UpdateInput{
		RecipeInput:        req.input(),
		Image:              image,
		DeleteCurrentImage: req.DeleteCurrentImage,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrRecipeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		}
		flashError(c, h.userMessage(err, "The recipe could not be updated."))
		return c.Redirect(http.StatusFound, editURL)
	}

	flashSuccess(c, "Recipe updated.")
	return c.Redirect(http.StatusFound, homeAfterSave)
}

// DeleteAndRedirect deletes from a form post and returns to the page the user came from.
// Failures are logged only.
func (h *RecipeHandler) DeleteAndRedirect(c echo.Context) error {
	if id, err := parseID(c.Param("id")); err == nil {
		if err := h.svc.Delete(c.Request().Context(), id); err != nil {
			h.log.Warn("recipe delete failed", logger.Fields{"recipe_id": id, "error": err.Error()})
		}
	}

	return c.Redirect(http.StatusFound, listingPath(c))
}

// listingPath is the listing a form post came from: favorites, a category or home.
func listingPath(c echo.Context) string {
	if from, _ := strconv.ParseBool(c.FormValue("from")); from {
		return "/recipes/favorites"
	}
	if category := c.FormValue("category"); category != "" {
		return "/recipes/category/" + url.PathEscape(category)
	}
	return "/home"
}

// fromBrowserForm reports a plain HTML form submission, as opposed to a script or API client.
func fromBrowserForm(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// Delete godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 200 "deleted"
// @Failure 404 "unknown recipe"
// @Failure 500 "delete failed"
// @Router /recipes/{id}/delete [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}

	if err := h.svc.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, apperrors.ErrRecipeNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		h.log.Error("recipe delete failed", logger.Fields{"recipe_id": id, "error": err.Error()})
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusOK)
}

// ToggleFavorite godoc
// @Summary Toggle the favorite flag
// @Description Answers with the new value as JSON. A browser form post without script is redirected back to its listing instead.
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {boolean} boolean "new favorite value"
// @Failure 404 "unknown recipe"
// @Failure 500 "update failed"
// @Router /recipes/{id}/toggleFavorite [post]
func (h *RecipeHandler) ToggleFavorite(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}

	favorite, err := h.svc.ToggleFavorite(c.Request().Context(), uint(id))
	if err != nil && !errors.Is(err, apperrors.ErrRecipeNotFound) {
		h.log.Error("toggle favorite failed", logger.Fields{"recipe_id": id, "error": err.Error()})
	}

	if fromBrowserForm(c) {
		switch {
		case errors.Is(err, apperrors.ErrRecipeNotFound):
			flashError(c, "Recipe not found.")
		case err != nil:
			flashError(c, "The favorite flag could not be changed.")
		}
		return c.Redirect(http.StatusFound, listingPath(c))
	}

	switch {
	case errors.Is(err, apperrors.ErrRecipeNotFound):
		return c.NoContent(http.StatusNotFound)
	case err != nil:
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, favorite)
}

// bindForm binds and validates a form, returning a user-facing message on failure.
func bindForm(c echo.Context, req interface{}) string {
	if err := c.Bind(req); err != nil {
		return "The submitted form could not be read."
	}
	if err := c.Validate(req); err != nil {
		return validationMessage(err)
	}
	return ""
}

// userMessage shows domain validation errors as-is and hides everything else behind fallback.
func (h *RecipeHandler) userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, apperrors.ErrTooManyCategories),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrImageTooLarge):
		return err.Error()
	default:
		h.log.Error("recipe write failed", logger.Fields{"error": err.Error()})
		return fallback
	}
}

func (h *RecipeHandler) internal(err error, op string) error {
	h.log.Error(op+" failed", logger.Fields{"error": err.Error()})
	return echo.NewHTTPError(http.StatusInternalServerError, apperrors.MapErrorToHTTP(err).ToErrorResponse())
}

// formImage opens the optional "image" part. A missing part yields a nil upload.
func formImage(c echo.Context) (*service.ImageUpload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}

	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, noop, err
	}
	return &service.ImageUpload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
