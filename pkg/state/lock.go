package state

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	lockTimeout     = 2 * time.Second
	lockStaleAge    = 10 * time.Second
	lockRetryDelay  = 20 * time.Millisecond
	lockRetryJitter = 30 * time.Millisecond
)

var errLockBusy = errors.New("lock held by another process")

// fileLock is an exclusive sidecar lock file holding the owner's PID.
type fileLock struct {
	lockPath string
	lockFile *os.File
}

// acquireLock creates filePath+".lock" exclusively, retrying with jitter
// until lockTimeout. Abandoned lock files are removed.
func acquireLock(filePath string) (*fileLock, error) {
	lockPath := filePath + ".lock"
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var lock *fileLock
	err := retry.Do(
		func() error {
			f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if err == nil {
				fmt.Fprintf(f, "%d\n", os.Getpid())
				lock = &fileLock{lockPath: lockPath, lockFile: f}
				return nil
			}
			if !os.IsExist(err) {
				return errors.Wrap(err, "failed to create lock file")
			}
			if lockAbandoned(lockPath) {
				os.Remove(lockPath)
			}
			return errLockBusy
		},
		retry.RetryIf(func(err error) bool { return errors.Is(err, errLockBusy) }),
		retry.Attempts(0),
		retry.Delay(lockRetryDelay),
		retry.MaxJitter(lockRetryJitter),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.New("timeout waiting for lock")
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// lockAbandoned reports whether the lock at path is older than lockStaleAge
// or names a process that no longer exists.
func lockAbandoned(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > lockStaleAge {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return false
	}
	alive, err := process.PidExists(int32(pid))
	return err == nil && !alive
}

// release closes and removes the lock file
func (fl *fileLock) release() error {
	if fl.lockFile != nil {
		fl.lockFile.Close()
		fl.lockFile = nil
	}

	if fl.lockPath != "" {
		err := os.Remove(fl.lockPath)
		fl.lockPath = ""
		return err
	}

	return nil
}

// withLock executes fn while holding the lock for filePath
func withLock(filePath string, fn func() error) error {
	lock, err := acquireLock(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to acquire lock")
	}
	defer lock.release()

	return fn()
}
