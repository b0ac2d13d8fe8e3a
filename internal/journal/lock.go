package journal

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory lock on the state directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the run lock at path without blocking. It returns
// ErrLocked when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
