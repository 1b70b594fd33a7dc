package process

import (
	"os"
	"syscall"

	"github.com/grovetools/fleet/errors"
)

// Kill sends SIGTERM to the given pid. The two expected failure modes are
// reported as distinct typed errors so callers can render them without
// treating either as fatal: ErrCodeProcessNotFound when the process exited
// before the signal landed, ErrCodePermissionDenied when it belongs to
// another user.
func Kill(pid int) error {
	if pid <= 0 {
		return errors.ProcessNotFound(pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.ProcessNotFound(pid)
	}

	err = proc.Signal(syscall.SIGTERM)
	switch {
	case err == nil:
		return nil
	case err == os.ErrProcessDone || err == syscall.ESRCH:
		return errors.ProcessNotFound(pid)
	case err == syscall.EPERM || os.IsPermission(err):
		return errors.PermissionDenied(pid)
	default:
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to signal process").
			WithDetail("pid", pid)
	}
}
