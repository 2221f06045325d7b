// Package gitcli shells out to the git CLI for the few repository
// facts grove needs when defaulting a pane's working directory.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git commands. The zero value uses "git" from PATH.
type Runner struct {
	// Path overrides the git binary.
	Path string
}

func (r Runner) git() string {
	if r.Path != "" {
		return r.Path
	}
	return "git"
}

// Run executes git with args in dir and returns trimmed stdout. On
// failure the error carries git's stderr.
func (r Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.git(), args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// TopLevel returns the repository root containing dir.
func (r Runner) TopLevel(ctx context.Context, dir string) (string, error) {
	return r.Run(ctx, dir, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch name in dir.
func (r Runner) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return r.Run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}
