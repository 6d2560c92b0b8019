package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesOrdered(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "0001_create_sequence_counters.sql", names[0])
	assert.Equal(t, "0002_create_demos.sql", names[1])
}

func TestFilesAreIdempotent(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	for _, name := range names {
		content, err := files.ReadFile(name)
		require.NoError(t, err)
		assert.Contains(t, string(content), "IF NOT EXISTS", name)
	}
}
