package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoadMigrations_SortsAndSkipsOtherFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"002_offers.sql":   "SELECT 2;",
		"001_sessions.sql": "SELECT 1;",
		"README.md":        "docs",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	got, err := LoadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_sessions.sql", got[0].Name)
	assert.Equal(t, "001", got[0].Version)
	assert.Equal(t, "SELECT 1;", got[0].SQL)
	assert.Equal(t, "002_offers.sql", got[1].Name)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	cases := map[string]map[string]string{
		"без версии":      {"sessions.sql": "SELECT 1;"},
		"повтор версии":   {"001_a.sql": "SELECT 1;", "001_b.sql": "SELECT 2;"},
		"заглавные буквы": {"001_Sessions.sql": "SELECT 1;"},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMigrations(writeFiles(t, files))
			assert.Error(t, err)
		})
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := LoadMigrations(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPending_SkipsApplied(t *testing.T) {
	all := []Migration{{Version: "001", Name: "001_sessions.sql"}, {Version: "002", Name: "002_offers.sql"}}

	got := Pending(all, map[string]bool{"001_sessions.sql": true})
	require.Len(t, got, 1)
	assert.Equal(t, "002_offers.sql", got[0].Name)

	assert.Empty(t, Pending(all, map[string]bool{"001_sessions.sql": true, "002_offers.sql": true}))
}

// Миграции репозитория должны проходить проверку имён.
func TestLoadMigrations_RepositoryMigrations(t *testing.T) {
	got, err := LoadMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].SQL, "gateway_sessions")
}
