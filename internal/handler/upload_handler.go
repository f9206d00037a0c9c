package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"recipeapp/internal/storage"
)

// UploadHandler streams stored images back under /uploads/.
type UploadHandler struct {
	images storage.ImageStore
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(images storage.ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// Serve writes the named image or 404s.
func (h *UploadHandler) Serve(c echo.Context) error {
	name := path.Base(c.Param("*"))
	if name == "." || name == "/" || name == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	rc, err := h.images.Open(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, rc)
}
