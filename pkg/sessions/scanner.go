// Package sessions discovers running Claude sessions and assembles the
// fleet snapshot. Discovery is a census, not a registry: every pass rebuilds
// all session records from the live process table and transcript tails, and
// a session that slips past one pass is simply picked up by the next.
package sessions

import (
	"strings"

	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/process"
)

const (
	cliBinaryName     = "claude"
	desktopBinaryName = "Claude"

	// DesktopBinaryPath is the desktop app's main executable. Helper
	// processes live under the same bundle but never at this exact path.
	DesktopBinaryPath = "/Applications/Claude.app/Contents/MacOS/Claude"

	resumeFlag = "--resume"
)

// FilterCandidates narrows a process census to session-owning processes.
// Helpers, crash reporters and extension hosts spawned by the same binaries
// are dropped here so downstream stages only ever see one process per session.
func FilterCandidates(procs []process.Snapshot) []process.Snapshot {
	var out []process.Snapshot
	for _, p := range procs {
		if isSessionProcess(p) {
			out = append(out, p)
		}
	}
	return out
}

func isSessionProcess(p process.Snapshot) bool {
	name := strings.ToLower(p.Comm)
	if strings.Contains(name, "helper") || strings.Contains(name, "crashpad") || strings.Contains(name, "shipit") {
		return false
	}
	if name == "node" && strings.Contains(strings.Join(p.Argv, " "), "Claude Extensions") {
		return false
	}
	if strings.Contains(name, "disclaimer") || (len(p.Argv) > 0 && strings.Contains(p.Argv[0], "disclaimer")) {
		return false
	}

	if p.Comm == cliBinaryName {
		return true
	}
	// The desktop app's main process is the only "Claude" we accept; its
	// helpers share the name but resolve to different executables.
	if p.Comm == desktopBinaryName && p.ExePath == DesktopBinaryPath {
		return true
	}
	return false
}

// ClassifySource determines where a session originated from its process
// identity. CLI processes resumed onto a short opaque token are background
// agents; a full UUID resume on the CLI is a user continuing their own
// session and stays classified as CLI.
func ClassifySource(p process.Snapshot) models.Source {
	if p.Comm == desktopBinaryName && strings.Contains(strings.Join(p.Argv, " "), DesktopBinaryPath) {
		return models.SourceDesktop
	}
	if p.Comm == cliBinaryName {
		if token := resumeToken(p.Argv); len(token) > 5 && len(token) < 20 {
			return models.SourceAgent
		}
		return models.SourceCLI
	}
	if ResumeSessionID(p.Argv) != "" {
		return models.SourceAgent
	}
	return models.SourceAPI
}

// resumeToken returns the argument following the first resume flag, or "".
func resumeToken(argv []string) string {
	for i, arg := range argv {
		if arg == resumeFlag && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

// ResumeSessionID returns the UUID-shaped session id carried by a resume
// flag (36 characters, exactly 4 hyphens). Tokens of any other shape are
// skipped, so a later well-formed resume argument still matches.
func ResumeSessionID(argv []string) string {
	for i, arg := range argv {
		if arg != resumeFlag || i+1 >= len(argv) {
			continue
		}
		candidate := argv[i+1]
		if len(candidate) == 36 && strings.Count(candidate, "-") == 4 {
			return candidate
		}
	}
	return ""
}
