package persistence

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFSIsOrderedAndAnnotated(t *testing.T) {
	fsys, err := MigrationFS()
	require.NoError(t, err)

	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	require.Len(t, names, 4)
	assert.Equal(t, "00001_create_users.sql", names[0])

	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "-- +goose Up"), name)
		assert.Contains(t, string(content), "-- +goose Down", name)
	}
}
