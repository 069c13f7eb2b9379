package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adityarbhat/feedfwd/internal/errors"
)

// Lock is an exclusive advisory lock on the index file, held for the
// duration of a read-modify-write sequence. It excludes other feedfwd
// processes, not other threads of this one; each invocation is a separate
// short-lived process, so that is the boundary that matters.
type Lock struct {
	file *os.File
}

// AcquireLock takes the index lock, retrying with doubling backoff when
// another process holds it. Exhausting the retries reports Unavailable.
// A cancelled context returns immediately with its error.
func AcquireLock(ctx context.Context, path string, retries int, backoff time.Duration) (*Lock, error) {
	if retries < 1 {
		retries = 1
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.NewUnavailable(fmt.Sprintf("cannot open index lock %s: %v", path, err))
	}

	wait := backoff
	for attempt := 0; attempt < retries; attempt++ {
		if err := ctx.Err(); err != nil {
			file.Close()
			return nil, err
		}

		err := flockExclusive(file)
		if err == nil {
			return &Lock{file: file}, nil
		}
		if !flockWouldBlock(err) {
			file.Close()
			return nil, errors.NewUnavailable(fmt.Sprintf("cannot lock index: %v", err))
		}

		if attempt < retries-1 {
			select {
			case <-ctx.Done():
				file.Close()
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
	}

	file.Close()
	return nil, errors.NewUnavailable("index is locked by another process")
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := flockRelease(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
