//go:build !windows

package store

import (
	stderrors "errors"
	"os"
	"syscall"
)

// flockExclusive takes a non-blocking exclusive flock on file.
func flockExclusive(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// flockWouldBlock reports whether err means another process holds the lock.
func flockWouldBlock(err error) bool {
	return stderrors.Is(err, syscall.EWOULDBLOCK) || stderrors.Is(err, syscall.EAGAIN)
}

// flockRelease drops the flock.
func flockRelease(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}
