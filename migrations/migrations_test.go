package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.Len(t, files, 3)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestBookingsHaveExclusionConstraint(t *testing.T) {
	body, err := fs.ReadFile(FS, "00002_bookings.sql")
	require.NoError(t, err)

	sql := string(body)
	assert.True(t, strings.Contains(sql, "EXCLUDE USING gist"))
	assert.True(t, strings.Contains(sql, "tstzrange(start_utc, blocked_until"))
}
