package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	require.NoError(t, s.Save("report.pdf", strings.NewReader("pdf bytes")))

	b, err := s.Read("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(b))

	ok, err := s.Exists("report.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete("report.pdf"))
	ok, err = s.Exists("report.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read("report.pdf")
	assert.Error(t, err)
}

func TestMemoryStorageDeleteMissing(t *testing.T) {
	s := NewMemoryStorage()
	assert.NoError(t, s.Delete("never-saved"))
}
