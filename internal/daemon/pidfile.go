package daemon

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// PIDFile is the daemon's PID file, held under an advisory exclusive lock
// for the lifetime of the process.
type PIDFile struct {
	lock *flock.Flock
}

// WritePIDFile creates or truncates the file at path, writes the current
// PID followed by a newline and keeps the file locked.
func WritePIDFile(path string) (*PIDFile, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock PID file %q: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("PID file %q is locked by another process", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open PID file %q: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to write PID file %q: %w", path, err)
	}
	return &PIDFile{lock: lock}, nil
}

// Close releases the lock. The file itself is left behind.
func (p *PIDFile) Close() error {
	return p.lock.Unlock()
}
