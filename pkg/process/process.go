// Package process enumerates live OS processes from /proc and provides
// liveness and signal helpers. Enumeration is best-effort: entries that
// vanish mid-scan or deny access are skipped rather than reported.
package process

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Linux pins CLK_TCK at 100 for userspace on all supported architectures.
const clockTicksPerSecond = 100

// Snapshot captures one process at scan time. Fields that require
// permissions the scanner does not have (Cwd, ExePath) are left empty.
type Snapshot struct {
	Pid       int
	Comm      string
	ExePath   string
	Argv      []string
	Cwd       string
	StartedAt time.Time
}

// Command returns the first argv element, falling back to Comm for
// processes whose cmdline is unreadable or empty.
func (s Snapshot) Command() string {
	if len(s.Argv) > 0 {
		return s.Argv[0]
	}
	return s.Comm
}

// Args returns argv minus the command itself.
func (s Snapshot) Args() []string {
	if len(s.Argv) <= 1 {
		return nil
	}
	return s.Argv[1:]
}

// Snapshotter supplies the process census for a discovery pass. Production
// code uses List; tests substitute a canned census.
type Snapshotter func() ([]Snapshot, error)

// List walks /proc and returns a snapshot per readable process. Processes
// that disappear between ReadDir and the per-pid reads are dropped
// silently, as are entries whose metadata cannot be read. Only a failure
// to enumerate /proc itself is an error.
func List() ([]Snapshot, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	boot := bootTime()
	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		snap, ok := read(pid, boot)
		if !ok {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func read(pid int, boot time.Time) (Snapshot, bool) {
	comm := readComm(pid)
	argv := readArgv(pid)
	if comm == "" && len(argv) == 0 {
		return Snapshot{}, false
	}

	snap := Snapshot{
		Pid:  pid,
		Comm: comm,
		Argv: argv,
	}

	if ticks, ok := readStartTicks(pid); ok && !boot.IsZero() {
		snap.StartedAt = boot.Add(time.Duration(ticks) * time.Second / clockTicksPerSecond)
	}
	if cwd, err := os.Readlink("/proc/" + strconv.Itoa(pid) + "/cwd"); err == nil {
		snap.Cwd = cwd
	}
	if exe, err := os.Readlink("/proc/" + strconv.Itoa(pid) + "/exe"); err == nil {
		snap.ExePath = exe
	}
	return snap, true
}

func readComm(pid int) string {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readArgv(pid int) []string {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cmdline")
	if err != nil {
		return nil
	}
	return splitArgv(data)
}

// splitArgv splits a /proc cmdline buffer on NUL separators. The kernel
// terminates each argument with a NUL, including the last one.
func splitArgv(data []byte) []string {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

func readStartTicks(pid int) (uint64, bool) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0, false
	}
	return parseStartTicks(string(data))
}

// parseStartTicks extracts field 22 (starttime) from a /proc/<pid>/stat
// line. The comm field may contain spaces and parentheses, so parsing
// anchors on the last ')' and counts fields from there: state is field 3,
// making starttime the 20th field after the close paren.
func parseStartTicks(stat string) (uint64, bool) {
	idx := strings.LastIndex(stat, ")")
	if idx < 0 || idx+2 > len(stat) {
		return 0, false
	}
	fields := strings.Fields(stat[idx+1:])
	if len(fields) < 20 {
		return 0, false
	}
	ticks, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return 0, false
	}
	return ticks, true
}

var (
	bootOnce   sync.Once
	bootCached time.Time
)

// bootTime reads the btime line from /proc/stat, which records the boot
// epoch that per-process start ticks are measured against.
func bootTime() time.Time {
	bootOnce.Do(func() {
		data, err := os.ReadFile("/proc/stat")
		if err != nil {
			return
		}
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.HasPrefix(line, "btime ") {
				continue
			}
			sec, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "btime ")), 10, 64)
			if err != nil {
				return
			}
			bootCached = time.Unix(sec, 0)
			return
		}
	})
	return bootCached
}

// IsProcessAlive reports whether a process with the given pid exists.
// Signal 0 performs the existence check without delivering anything; a
// permission error still proves the process exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
