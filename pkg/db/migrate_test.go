package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedAndPaired(t *testing.T) {
	dir := filepath.Join("..", "..", "migrations")

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, f := range files {
		if i > 0 {
			assert.Less(t, files[i-1], f)
		}
		down := strings.TrimSuffix(f, ".up.sql") + ".down.sql"
		_, err := os.Stat(down)
		assert.NoError(t, err, "missing down migration for %s", filepath.Base(f))
	}
}

func TestMigrationFilesSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "0001_a.up.sql", filepath.Base(files[0]))
	assert.Equal(t, "0002_b.up.sql", filepath.Base(files[1]))
}

func TestStatementVerb(t *testing.T) {
	assert.Equal(t, "select", statementVerb("  SELECT id FROM tasks"))
	assert.Equal(t, "update", statementVerb("\n\tupdate tasks set"))
	assert.Equal(t, "unknown", statementVerb(""))
}
