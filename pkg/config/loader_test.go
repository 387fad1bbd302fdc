package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadConfigLayersAndPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  password: ${THINKHUB_TEST_DB_PASSWORD}
jwt:
  secret: ${THINKHUB_TEST_JWT_SECRET}
tags: ["${THINKHUB_TEST_TAG}"]
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.internal
`)
	writeFile(t, dir, "secrets.env", `
# comment
THINKHUB_TEST_DB_PASSWORD="from-secrets"
THINKHUB_TEST_JWT_SECRET='jwt-from-secrets'
`)
	t.Setenv("THINKHUB_TEST_JWT_SECRET", "jwt-from-env")

	cfg, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	db := cfg["db"].(map[string]any)
	assert.Equal(t, "db.internal", db["host"])
	assert.Equal(t, 5432, db["port"])
	assert.Equal(t, "from-secrets", db["password"])
	assert.Equal(t, "jwt-from-env", cfg["jwt"].(map[string]any)["secret"])
	// unresolved placeholders are kept
	assert.Equal(t, []any{"${THINKHUB_TEST_TAG}"}, cfg["tags"])
}

func TestLoadConfigMissingOverlayAndBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":8080\"\n")

	cfg, err := LoadConfig("nope", dir)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg["server"].(map[string]any)["port"])

	_, err = LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestMergeIntoNested(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}
	mergeInto(dst, map[string]any{"a": map[string]any{"y": 3}, "b": map[string]any{"z": 1}})

	assert.Equal(t, map[string]any{"x": 1, "y": 3}, dst["a"])
	assert.Equal(t, map[string]any{"z": 1}, dst["b"])
}
