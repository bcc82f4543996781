// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/personapi", "pgx5://u:p@localhost:5432/personapi"},
		{"postgresql://u:p@db/personapi?sslmode=disable", "pgx5://u:p@db/personapi?sslmode=disable"},
		{"pgx5://u:p@db/personapi", "pgx5://u:p@db/personapi"},
		{"host=localhost dbname=personapi", "host=localhost dbname=personapi"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
	}
}

func TestSourceURL(t *testing.T) {
	dir := t.TempDir()

	source, err := sourceURL(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(source, "file://"))
	assert.True(t, strings.HasSuffix(source, filepath.ToSlash(dir)))

	_, err = sourceURL(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "000001_create_principals.up.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 1;"), 0o600))
	_, err = sourceURL(file)
	assert.Error(t, err)
}

/*
TestOpen_MissingDirectory verifies a bad path fails before any database connection is attempted.
*/
func TestOpen_MissingDirectory(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	_, err := Open("postgres://u:p@127.0.0.1:1/none", filepath.Join(t.TempDir(), "nope"), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations directory")
}

/*
TestMigrationFiles verifies every up script in the repository has a matching down script.
*/
func TestMigrationFiles(t *testing.T) {
	ups, err := filepath.Glob("../../../data/migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := os.Stat(down)
		assert.NoError(t, err, "missing down migration for %s", filepath.Base(up))
	}
}
