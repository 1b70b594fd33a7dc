package git

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

// fakeExecutor replaces the git binary with a fixed echo invocation.
type fakeExecutor struct {
	output string
}

func (e *fakeExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command("echo", e.output)
}

func (e *fakeExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "echo", e.output)
}

func TestCurrentBranch(t *testing.T) {
	r := NewResolverWithExecutor(&fakeExecutor{output: "main"}, time.Second)
	if got := r.CurrentBranch(context.Background(), t.TempDir()); got != "main" {
		t.Errorf("CurrentBranch() = %q, want %q", got, "main")
	}
}

func TestCurrentBranchEmptyDir(t *testing.T) {
	r := NewResolverWithExecutor(&fakeExecutor{output: "main"}, time.Second)
	if got := r.CurrentBranch(context.Background(), ""); got != "" {
		t.Errorf("CurrentBranch(\"\") = %q, want empty", got)
	}
}

func TestCurrentBranchRejectsUnsafeDir(t *testing.T) {
	r := NewResolverWithExecutor(&fakeExecutor{output: "main"}, time.Second)
	for _, dir := range []string{"/tmp; rm -rf /", "/tmp/../etc"} {
		if got := r.CurrentBranch(context.Background(), dir); got != "" {
			t.Errorf("CurrentBranch(%q) = %q, want empty", dir, got)
		}
	}
}

func TestCurrentBranchDetachedHead(t *testing.T) {
	// --show-current prints nothing on a detached HEAD.
	r := NewResolverWithExecutor(&fakeExecutor{output: ""}, time.Second)
	if got := r.CurrentBranch(context.Background(), t.TempDir()); got != "" {
		t.Errorf("CurrentBranch() on detached head = %q, want empty", got)
	}
}

func TestNewResolverDefaultTimeout(t *testing.T) {
	r := NewResolverWithExecutor(&fakeExecutor{}, 0)
	if r.timeout != DefaultLookupTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultLookupTimeout)
	}
}
