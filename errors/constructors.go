package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *FleetError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *FleetError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SettingsCorrupt reports an unparsable shared settings document. Mutation of
// the settings file is refused while it is in this state.
func SettingsCorrupt(path string, err error) *FleetError {
	return Wrap(err, ErrCodeSettingsCorrupt, fmt.Sprintf("settings file is not valid JSON: %s", path)).
		WithDetail("path", path)
}

// HookScriptMissing reports that the hook script artifact has not been deployed.
func HookScriptMissing(path string) *FleetError {
	return New(ErrCodeHookScriptMissing, fmt.Sprintf("hook script not deployed: %s", path)).
		WithDetail("path", path)
}

// ProcessNotFound reports a signal sent to a pid that no longer exists.
func ProcessNotFound(pid int) *FleetError {
	return New(ErrCodeProcessNotFound, fmt.Sprintf("process %d no longer exists", pid)).
		WithDetail("pid", pid)
}

// PermissionDenied reports a signal refused by the OS.
func PermissionDenied(pid int) *FleetError {
	return New(ErrCodePermissionDenied, fmt.Sprintf("permission denied signaling process %d", pid)).
		WithDetail("pid", pid)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *FleetError {
	fleetErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		fleetErr = fleetErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return fleetErr
}
