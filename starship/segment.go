package starship

import "fmt"

// Segment formats the prompt text for the given session counts. Styling
// lives in starship.toml, so the segment stays plain text.
func Segment(active, total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("✳ %d/%d", active, total)
}
