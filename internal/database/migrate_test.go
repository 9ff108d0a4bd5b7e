package database

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource(t *testing.T) {
	src, err := migrationSource()
	require.NoError(t, err)
	defer src.Close()

	var versions []uint
	version, err := src.First()
	for err == nil {
		versions = append(versions, version)

		up, _, upErr := src.ReadUp(version)
		require.NoError(t, upErr)
		upSQL, readErr := io.ReadAll(up)
		require.NoError(t, readErr)
		require.NoError(t, up.Close())
		assert.Contains(t, string(upSQL), "CREATE TABLE")

		down, _, downErr := src.ReadDown(version)
		require.NoError(t, downErr)
		require.NoError(t, down.Close())

		version, err = src.Next(version)
	}
	assert.True(t, errors.Is(err, fs.ErrNotExist), "unexpected error: %v", err)
	assert.Equal(t, []uint{1, 2}, versions)
}
