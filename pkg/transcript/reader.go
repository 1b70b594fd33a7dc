package transcript

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// TailWindowBytes bounds how much of a transcript one pass reads.
// Transcripts grow to multiple MB; the last 50KB holds more entries than
// any classifier window looks at.
const TailWindowBytes = 50_000

// Tail is the decoded trailing window of a transcript. An open or stat
// failure and a window yielding zero valid records both produce an empty
// Tail; callers treat either as "no signal" and fall back to defaults.
type Tail struct {
	Entries  []Entry
	FileSize int64
}

// Empty reports whether the window yielded no usable entries.
func (t Tail) Empty() bool { return len(t.Entries) == 0 }

// ReadTail decodes the last TailWindowBytes of the transcript at path.
// When the read starts mid-file the first line may be a partial record
// and is discarded. Malformed lines are dropped individually; one bad
// line never invalidates the rest of the window.
func ReadTail(path string) Tail {
	info, err := os.Stat(path)
	if err != nil {
		return Tail{}
	}
	f, err := os.Open(path)
	if err != nil {
		return Tail{}
	}
	defer f.Close()

	size := info.Size()
	seek := size - TailWindowBytes
	if seek < 0 {
		seek = 0
	}
	if seek > 0 {
		if _, err := f.Seek(seek, io.SeekStart); err != nil {
			return Tail{}
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return Tail{}
	}

	text := strings.ToValidUTF8(string(data), "")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if seek > 0 && len(lines) > 0 {
		lines = lines[1:]
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return Tail{Entries: entries, FileSize: size}
}
