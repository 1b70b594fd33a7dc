// Package sanitize normalizes externally supplied identifiers before they
// become filesystem names. Session ids arrive from hook environments fleet
// does not control, so nothing from them may traverse directories.
package sanitize

import (
	"regexp"
	"strings"
)

// maxFilenameLen bounds sanitized stems. Session ids are UUIDs (36 chars),
// so the cap only bites on garbage input.
const maxFilenameLen = 50

var (
	// invalidFilenameChars matches everything outside the safe stem set.
	invalidFilenameChars = regexp.MustCompile(`[^a-z0-9-]+`)

	// multiDashRegex matches runs of consecutive hyphens.
	multiDashRegex = regexp.MustCompile(`-+`)
)

// ForFilename reduces s to a safe file stem: lowercase alphanumerics and
// hyphens only. Dots and separators are stripped, not replaced, so "../x"
// collapses into a plain name. UUID session ids and numeric pids pass
// through unchanged apart from case. The result may be empty; callers
// must treat that as an invalid identifier.
func ForFilename(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = invalidFilenameChars.ReplaceAllString(s, "")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}
