package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/fleet/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Fleet runs fine without one; create fleet.yml under your config dir to customize.\n")
		return err

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Fix fleet.yml and retry.\n")
		return err

	case errors.ErrCodeProcessNotFound:
		if fleetErr, ok := err.(*errors.FleetError); ok {
			fmt.Fprintf(os.Stderr, "❌ No process with PID %v. The session may have already exited.\n", fleetErr.Details["pid"])
		}
		return err

	case errors.ErrCodePermissionDenied:
		if fleetErr, ok := err.(*errors.FleetError); ok {
			fmt.Fprintf(os.Stderr, "❌ Permission denied signaling PID %v. The process belongs to another user.\n", fleetErr.Details["pid"])
		}
		return err

	case errors.ErrCodeSettingsCorrupt:
		fmt.Fprintf(os.Stderr, "❌ Claude settings file is not valid JSON. Fix it by hand before installing the hook.\n")
		return err

	case errors.ErrCodeServerSocket:
		fmt.Fprintf(os.Stderr, "❌ Cannot bind the fleet socket. Is another 'fleet serve' already running?\n")
		fmt.Fprintf(os.Stderr, "Check with 'fleet serve status'.\n")
		return err

	case errors.ErrCodeServerUnavailable:
		fmt.Fprintf(os.Stderr, "❌ Fleet server is not running. Start it with 'fleet serve start'.\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if fleetErr, ok := err.(*errors.FleetError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", fleetErr.ToJSON())
			}
		}
		return err
	}
}
