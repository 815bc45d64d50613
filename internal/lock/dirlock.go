// Package lock provides an exclusive lock on an output directory so that two
// gobalance runs cannot interleave their writes.
package lock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the locked directory.
const FileName = ".gobalance.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("directory is locked by another run")

// DirLock is an advisory flock(2) lock on <dir>/.gobalance.lock. The lock is
// released by Release or when the process exits.
type DirLock struct {
	dir  string
	lock *flock.Flock
}

// NewDirLock creates a lock for dir. Nothing is acquired until TryAcquire.
func NewDirLock(dir string) *DirLock {
	return &DirLock{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, FileName)),
	}
}

// TryAcquire attempts to take the lock without waiting.
// Returns false if another holder has it.
func (l *DirLock) TryAcquire() (bool, error) {
	if l.lock.Locked() {
		return true, nil
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	return ok, nil
}

// AcquireOrFail takes the lock or returns ErrLocked.
//
// Example:
//
//	dl := NewDirLock(manifestDir)
//	if err := dl.AcquireOrFail(); err != nil {
//	    return err
//	}
//	defer dl.Release()
func (l *DirLock) AcquireOrFail() error {
	ok, err := l.TryAcquire()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.Path())
	}
	return nil
}

// Release drops the lock. It returns false if the lock was not held.
// The lock file itself is left in place.
func (l *DirLock) Release() (bool, error) {
	if !l.lock.Locked() {
		return false, nil
	}
	if err := l.lock.Unlock(); err != nil {
		return false, fmt.Errorf("failed to unlock %s: %w", l.dir, err)
	}
	return true, nil
}

// IsHeld reports whether this instance holds the lock.
func (l *DirLock) IsHeld() bool {
	return l.lock.Locked()
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.lock.Path()
}
