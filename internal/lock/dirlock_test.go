package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirLock(t *testing.T) {
	dir := t.TempDir()
	l := NewDirLock(dir)

	assert.Equal(t, filepath.Join(dir, FileName), l.Path())
	assert.False(t, l.IsHeld())
}

func TestDirLock_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := NewDirLock(dir)

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.IsHeld())

	_, err = os.Stat(l.Path())
	assert.NoError(t, err, "lock file should exist while held")

	released, err := l.Release()
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, l.IsHeld())
}

func TestDirLock_AlreadyHeld(t *testing.T) {
	l := NewDirLock(t.TempDir())
	require.NoError(t, l.AcquireOrFail())
	defer l.Release()

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok, "re-acquiring a held lock should succeed")
}

func TestDirLock_Contention(t *testing.T) {
	dir := t.TempDir()
	first := NewDirLock(dir)
	second := NewDirLock(dir)

	require.NoError(t, first.AcquireOrFail())

	ok, err := second.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok)

	err = second.AcquireOrFail()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Contains(t, err.Error(), FileName)

	_, err = first.Release()
	require.NoError(t, err)

	require.NoError(t, second.AcquireOrFail())
	_, err = second.Release()
	require.NoError(t, err)
}

func TestDirLock_ReleaseNotHeld(t *testing.T) {
	l := NewDirLock(t.TempDir())

	released, err := l.Release()
	require.NoError(t, err)
	assert.False(t, released)
}

func TestDirLock_MissingDirectory(t *testing.T) {
	l := NewDirLock(filepath.Join(t.TempDir(), "missing"))

	_, err := l.TryAcquire()
	assert.Error(t, err)
	assert.False(t, l.IsHeld())
}
