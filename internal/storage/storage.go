// Package storage persists uploaded recipe images.
//
// Stored images are always addressed by an image path of the form
// "/uploads/<file name>"; drivers map the file name to their own location.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"recipeapp/internal/config"
)

// URLPrefix is the public prefix under which images are served.
const URLPrefix = "/uploads/"

// ErrNotExist is returned when an image is not present in the store.
var ErrNotExist = fs.ErrNotExist

// ImageStore saves, opens and deletes uploaded images.
type ImageStore interface {
	// Save writes the content under a new collision-resistant name and returns its image path.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Open streams the image stored under file name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the image referenced by imagePath, reporting whether a file was actually removed.
	Delete(ctx context.Context, imagePath string) (bool, error)
}

// New builds the image store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, uploadDir string) (ImageStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(uploadDir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (supported: local, s3)", cfg.Driver)
	}
}

// FileName builds "<unix millis>_<base name>" from an uploaded file's original name.
func FileName(originalName string, now time.Time) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), baseName(originalName))
}

// ImagePath returns the public image path for a stored file name.
func ImagePath(name string) string {
	return URLPrefix + name
}

// NameFromPath extracts the stored file name from an image path.
func NameFromPath(imagePath string) string {
	return baseName(imagePath)
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "image"
	}
	return base
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
