// Package git implements diffstage.Repository by running the git binary.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Runner abstracts executing git commands.
type Runner interface {
	// Run executes git with args in dir and returns its standard output.
	// The output is returned even when the command fails.
	Run(ctx context.Context, dir string, stdin io.Reader, args ...string) (string, error)
}

// CommandError is returned when git exits with a non-zero status.
type CommandError struct {
	Command  string // Sanitized subcommand, e.g. "apply"
	ExitCode int
	Stderr   string // Redacted
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("git %s: exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("git %s: %s", e.Command, e.Stderr)
}

// ExecRunner executes the configured git binary.
type ExecRunner struct {
	GitBin string
	Logger *slog.Logger
}

// NewExecRunner creates a runner for gitBin, defaulting to "git".
func NewExecRunner(gitBin string, logger *slog.Logger) *ExecRunner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecRunner{GitBin: gitBin, Logger: logger}
}

// Run executes git.
func (e *ExecRunner) Run(ctx context.Context, dir string, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.GitBin, args...)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0", "GIT_TERMINAL_PROMPT=0")
	cmd.Stdin = stdin

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()
	e.Logger.Debug("git", "command", sanitizeArgs(args), "dir", dir, "duration", time.Since(start), "error", err)
	if err == nil {
		return out.String(), nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return out.String(), fmt.Errorf("git %s: %w", sanitizeArgs(args), err)
	}
	return out.String(), &CommandError{
		Command:  sanitizeArgs(args),
		ExitCode: exitErr.ExitCode(),
		Stderr:   redactTokens(strings.TrimSpace(errb.String())),
	}
}

var (
	safeArgRegex    = regexp.MustCompile(`^[a-z][a-z-]*$`)
	credentialRegex = regexp.MustCompile(`https?://[^\s@]+@`)
	tokenRegex      = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s]+`)
)

// sanitizeArgs returns a minimal, non-sensitive summary of the git operation.
// It keeps at most the first two subcommand tokens that look like safe words.
func sanitizeArgs(args []string) string {
	if len(args) == 0 {
		return "<no-args>"
	}
	safe := make([]string, 0, 2)
	for _, a := range args {
		if !safeArgRegex.MatchString(a) {
			break
		}
		safe = append(safe, a)
		if len(safe) == 2 {
			break
		}
	}
	if len(safe) == 0 {
		return "<redacted>"
	}
	return strings.Join(safe, " ")
}

// redactTokens removes obvious credential substrings from messages.
func redactTokens(s string) string {
	s = credentialRegex.ReplaceAllString(s, "https://<redacted>@")
	return tokenRegex.ReplaceAllString(s, "$1=<redacted>")
}
