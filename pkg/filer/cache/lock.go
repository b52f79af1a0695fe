package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// lockFile is the name of the file badger writes its owner's PID into.
const lockFile = "LOCK"

// ErrLocked is returned by Open when another live process holds the cache.
var ErrLocked = errors.New("cache is in use by another process")

// recoverLock removes a lock file left behind by a process that no longer
// exists. A missing or unreadable lock file is not an error.
func recoverLock(dir string) error {
	path := filepath.Join(dir, lockFile)
	pid, err := readPID(path)
	if err != nil {
		return nil //nolint:nilerr // nothing to recover
	}

	if pid == os.Getpid() {
		return nil
	}
	if processRunning(pid) {
		return fmt.Errorf("%w (pid %d)", ErrLocked, pid)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
