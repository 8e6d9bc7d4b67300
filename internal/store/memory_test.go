package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set("key", []byte("value"), 0))

	got, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	original := []byte("value")
	require.NoError(t, s.Set("key", original, 0))
	original[0] = 'X'

	got, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	// Mutating the returned slice must not poison the cache.
	got[0] = 'Y'
	again, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set("short", []byte("v"), 20*time.Millisecond))

	_, err := s.Get("short")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = s.Get("short")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := s.Exists("short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set("key", []byte("v"), 0))
	require.NoError(t, s.Delete("key"))

	_, err := s.Get("key")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete("key"))
}

func TestMemoryStore_Exists(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	exists, err := s.Exists("key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Set("key", []byte("v"), 0))

	exists, err = s.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	s := NewMemoryStore()

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
