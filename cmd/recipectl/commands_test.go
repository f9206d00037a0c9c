package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeapp/internal/app"
	"recipeapp/internal/config"
	"recipeapp/internal/logger"
)

// testOpener shares one on-disk sqlite database across invocations.
func testOpener(t *testing.T) opener {
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:          "sqlite",
		DBDSN:             filepath.Join(dir, "recipes.db"),
		JWTSecret:         "test-secret",
		Upload:            config.UploadConfig{Dir: filepath.Join(dir, "uploads"), MaxFileSize: 1 << 20},
		Storage:           config.StorageConfig{Driver: "local"},
		BootstrapPassword: "password",
	}
	return func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, logger.Nop())
	}
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBootstrapAndUsers(t *testing.T) {
	open := testOpener(t)

	out, err := run(t, open, "bootstrap")
	require.NoError(t, err)
	assert.Contains(t, out, "Created account admin")
	assert.Contains(t, out, "Created account user")

	out, err = run(t, open, "bootstrap")
	require.NoError(t, err)
	assert.Equal(t, "Default accounts already exist\n", out)

	out, err = run(t, open, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered users:")
	assert.Contains(t, out, "Username: admin, Role: ROLE_ADMIN")
}

func TestExportImportReset(t *testing.T) {
	open := testOpener(t)
	dir := t.TempDir()

	importFile := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(importFile, []byte(`[
		{"title":"Soup","ingredients":"water","categories":["dinner"]},
		{"title":""}
	]`), 0o644))

	out, err := run(t, open, "import", importFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 recipes")
	assert.Contains(t, out, "skipped #1")

	exportFile := filepath.Join(dir, "out.json")
	_, err = run(t, open, "export", "-o", exportFile)
	require.NoError(t, err)
	raw, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title": "Soup"`)
	assert.Contains(t, string(raw), `"hasImage": false`)

	_, err = run(t, open, "reset")
	assert.ErrorIs(t, err, errResetNotConfirmed)

	out, err = run(t, open, "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Data reset complete. Recipes deleted: 1, images deleted: 0\n", out)
}

func TestImport_RejectsMalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"not":"a list"}`), 0o644))

	_, err := run(t, func(context.Context) (*app.App, error) {
		t.Fatal("app must not be opened for a malformed file")
		return nil, nil
	}, "import", file)
	assert.Error(t, err)
}

