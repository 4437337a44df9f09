package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	require.NoError(t, s.Save("abc123", payload{Name: "draft", Count: 3}))

	var got payload
	require.NoError(t, s.Load("abc123", &got))
	assert.Equal(t, payload{Name: "draft", Count: 3}, got)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	var got payload
	assert.ErrorIs(t, s.Load("nope", &got), ErrNotFound)
}

func TestSaveCreatesDir(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "nested", "sessions"))
	require.NoError(t, s.Save("x", payload{}))

	var got payload
	require.NoError(t, s.Load("x", &got))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	require.NoError(t, s.Save("gone", payload{}))
	require.NoError(t, s.Delete("gone"))

	var got payload
	assert.ErrorIs(t, s.Load("gone", &got), ErrNotFound)

	// deleting a missing snapshot is fine
	assert.NoError(t, s.Delete("gone"))
}

func TestList(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	ids, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.Save("a", payload{}))
	require.NoError(t, s.Save("b", payload{}))

	ids, err = s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
