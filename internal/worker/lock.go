package worker

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/gofrs/flock"
)

// InstanceLock keeps sweeps single-instance per host
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// AcquireInstanceLock takes the lock at path without waiting. A lock held by
// another process yields a CodeConflict error.
func AcquireInstanceLock(path string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, "failed to create lock directory")
	}

	l := &InstanceLock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, "failed to acquire lock "+path)
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeConflict, fmt.Sprintf("another sweeper holds %s", path))
	}
	return l, nil
}

// Path returns the lock file location
func (l *InstanceLock) Path() string {
	return l.path
}

// Release unlocks; the lock file itself is left in place
func (l *InstanceLock) Release() error {
	return l.lock.Unlock()
}
