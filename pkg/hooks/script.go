package hooks

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/grovetools/fleet/errors"
)

//go:embed post_tool_use.sh
var hookScript []byte

// DeployScript writes the bundled PostToolUse reporter script to path and
// marks it executable. Settings.Install requires this artifact on disk
// before it will register the hook.
func DeployScript(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to create hook script directory").
			WithDetail("path", path)
	}
	if err := os.WriteFile(path, hookScript, 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to deploy hook script").
			WithDetail("path", path)
	}
	return nil
}
