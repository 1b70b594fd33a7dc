package hooks

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
)

// MaxReapFiles caps how many enrichment files one reap pass examines.
const MaxReapFiles = 200

// Reap deletes status documents whose owning process is gone and repairs
// the directory by deleting documents that no longer parse. A document is
// only trusted for liveness comparison when its pid field is a JSON
// number with an integral value; string, boolean, null, missing, or
// fractional pids keep the file. The reserved config file is always
// skipped. A missing directory reaps nothing.
func (s *Store) Reap(livePids map[int]bool) int {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0
	}

	removed := 0
	for i, path := range matches {
		if i >= MaxReapFiles {
			break
		}
		if filepath.Base(path) == ReservedConfigName {
			continue
		}

		data, readErr := os.ReadFile(path)
		var doc map[string]interface{}
		if readErr != nil || json.Unmarshal(data, &doc) != nil {
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}

		pid, ok := integralPid(doc["pid"])
		if ok && !livePids[pid] {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed
}

// integralPid accepts only JSON numbers with integral values.
func integralPid(v interface{}) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
