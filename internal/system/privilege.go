package system

import (
	"errors"
	"os"
	"runtime"

	"go.uber.org/zap"
)

var ErrNotRoot = errors.New("root privileges required, run with sudo")

// CheckPrivileges fails unless the process runs as root. On Windows there is
// no euid, the check is skipped with a warning.
func CheckPrivileges(logger *zap.Logger) error {
	return checkPrivileges(runtime.GOOS, os.Geteuid(), logger)
}

func checkPrivileges(goos string, euid int, logger *zap.Logger) error {
	if goos == "windows" {
		logger.Warn("running on windows, root check skipped")
		return nil
	}
	if euid != 0 {
		return ErrNotRoot
	}
	return nil
}
