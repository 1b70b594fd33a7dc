// Package git resolves the checked-out branch for session project
// directories via the git CLI.
package git

import (
	"context"
	"strings"
	"time"

	"github.com/grovetools/fleet/command"
)

// DefaultLookupTimeout bounds a single branch lookup so one unresponsive
// git invocation cannot stall a whole discovery pass.
const DefaultLookupTimeout = 2 * time.Second

// Resolver looks up branches for project directories. Lookups are
// best-effort: any failure, including a timeout, yields an empty branch.
type Resolver struct {
	builder *command.SafeBuilder
	timeout time.Duration
}

// NewResolver creates a Resolver with a bounded per-lookup timeout.
// Non-positive timeouts fall back to DefaultLookupTimeout.
func NewResolver(timeout time.Duration) *Resolver {
	return NewResolverWithExecutor(&command.RealExecutor{}, timeout)
}

// NewResolverWithExecutor creates a Resolver with a custom command
// executor, used by tests to substitute the git binary.
func NewResolverWithExecutor(exec command.Executor, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{
		builder: command.NewSafeBuilderWithExecutor(exec),
		timeout: timeout,
	}
}

// CurrentBranch returns the branch checked out in dir, or "" when dir is
// empty or unsafe, not a repository, or the lookup fails. A detached HEAD
// also reports "".
func (r *Resolver) CurrentBranch(ctx context.Context, dir string) string {
	if dir == "" {
		return ""
	}
	if err := r.builder.Validate("dirPath", dir); err != nil {
		return ""
	}

	cmd, err := r.builder.Build(ctx, "git", "branch", "--show-current")
	if err != nil {
		return ""
	}
	execCmd := cmd.WithTimeout(r.timeout).Exec()
	execCmd.Dir = dir
	output, err := execCmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
