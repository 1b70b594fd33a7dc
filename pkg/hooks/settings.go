package hooks

import (
	"encoding/json"
	"os"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/paths"
)

// Settings registers and unregisters the PostToolUse reporter in the
// shared Claude settings document. The document belongs to another
// program; fleet only ever touches one exact entry in hooks.PostToolUse
// and refuses to write at all when the existing file does not parse.
type Settings struct {
	path       string
	scriptPath string
}

// NewSettings creates a Settings editor. Empty arguments select the
// default settings document and hook script locations.
func NewSettings(path, scriptPath string) *Settings {
	if path == "" {
		path = paths.SettingsPath()
	}
	if scriptPath == "" {
		scriptPath = paths.HookScriptPath()
	}
	return &Settings{path: path, scriptPath: scriptPath}
}

// ScriptPath returns the hook script path this editor registers.
func (s *Settings) ScriptPath() string { return s.scriptPath }

// Install appends the fleet hook entry to hooks.PostToolUse. Installing
// when the entry is already present is a no-op. It fails when the hook
// script has not been deployed or the settings document is unparsable.
func (s *Settings) Install() error {
	if _, err := os.Stat(s.scriptPath); err != nil {
		return errors.HookScriptMissing(s.scriptPath)
	}

	settings, err := s.load()
	if err != nil {
		return err
	}

	hooksObj, ok := settings["hooks"].(map[string]interface{})
	if settings["hooks"] != nil && !ok {
		return errors.SettingsCorrupt(s.path, nil)
	}
	if hooksObj == nil {
		hooksObj = map[string]interface{}{}
		settings["hooks"] = hooksObj
	}

	entries, ok := hooksObj["PostToolUse"].([]interface{})
	if hooksObj["PostToolUse"] != nil && !ok {
		return errors.SettingsCorrupt(s.path, nil)
	}

	for _, entry := range entries {
		if s.isFleetEntry(entry) {
			return nil
		}
	}

	hooksObj["PostToolUse"] = append(entries, map[string]interface{}{
		"matcher": "",
		"command": s.scriptPath,
	})
	return s.write(settings)
}

// Uninstall removes the fleet hook entry and prunes the PostToolUse list
// and hooks object when they end up empty. Removing an absent entry
// succeeds; a missing settings document is a no-op.
func (s *Settings) Uninstall() error {
	if _, err := os.Stat(s.path); err != nil {
		return nil
	}

	settings, err := s.load()
	if err != nil {
		return err
	}

	if hooksObj, ok := settings["hooks"].(map[string]interface{}); ok {
		if entries, ok := hooksObj["PostToolUse"].([]interface{}); ok {
			kept := make([]interface{}, 0, len(entries))
			for _, entry := range entries {
				if !s.isFleetEntry(entry) {
					kept = append(kept, entry)
				}
			}
			if len(kept) == 0 {
				delete(hooksObj, "PostToolUse")
			} else {
				hooksObj["PostToolUse"] = kept
			}
			if len(hooksObj) == 0 {
				delete(settings, "hooks")
			}
		}
	}
	return s.write(settings)
}

// IsInstalled reports whether the fleet hook entry is present. Missing or
// unparsable settings read as not installed.
func (s *Settings) IsInstalled() bool {
	settings, err := s.load()
	if err != nil {
		return false
	}
	hooksObj, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		return false
	}
	entries, ok := hooksObj["PostToolUse"].([]interface{})
	if !ok {
		return false
	}
	for _, entry := range entries {
		if s.isFleetEntry(entry) {
			return true
		}
	}
	return false
}

// isFleetEntry matches exactly the entry Install writes: two keys, an
// empty matcher, and this editor's script path. Entries users added by
// hand, even ones pointing at the same script with extra keys, are left
// alone.
func (s *Settings) isFleetEntry(v interface{}) bool {
	entry, ok := v.(map[string]interface{})
	if !ok || len(entry) != 2 {
		return false
	}
	matcher, ok := entry["matcher"].(string)
	if !ok || matcher != "" {
		return false
	}
	command, ok := entry["command"].(string)
	return ok && command == s.scriptPath
}

// load parses the settings document into a generic map. A missing file is
// an empty document; an unreadable or unparsable one blocks mutation.
func (s *Settings) load() (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, errors.SettingsCorrupt(s.path, err)
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, errors.SettingsCorrupt(s.path, err)
	}
	if settings == nil {
		settings = map[string]interface{}{}
	}
	return settings, nil
}

func (s *Settings) write(settings map[string]interface{}) error {
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to encode settings document")
	}
	if err := atomicWriteJSON(s.path, payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to write settings document").
			WithDetail("path", s.path)
	}
	return nil
}
