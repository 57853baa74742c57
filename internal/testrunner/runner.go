// Package testrunner runs the project's test command for a component so the
// operator can check a submission before approving it.
package testrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Placeholders substituted into every argument of the command.
const (
	PlaceholderTest = "{test}"
	PlaceholderStem = "{stem}"
)

var (
	// ErrNoCommand is returned when the runner has nothing to execute.
	ErrNoCommand = errors.New("testrunner: command is required")
	// ErrTimeout is returned when the run exceeded Runner.Timeout.
	ErrTimeout = errors.New("testrunner: timed out")
)

// Runner executes test commands in Dir.
type Runner struct {
	// Command runs one component's tests; it is used when a test artifact is given.
	Command []string
	// All runs the whole suite; it is used when the artifact is empty.
	All []string
	// Dir is the working directory, normally the project root.
	Dir string
	// Timeout bounds a single run. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Result captures one finished run. A failing test suite is a Result with
// Passed=false, not an error.
type Result struct {
	Command  []string
	Passed   bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Summary renders the command and its outcome on one line.
func (r Result) Summary() string {
	status := "passed"
	if !r.Passed {
		status = fmt.Sprintf("failed (exit %d)", r.ExitCode)
	}
	return fmt.Sprintf("%s: %s in %s", strings.Join(r.Command, " "), status, r.Duration.Round(time.Millisecond))
}

// Args returns the argv that Run would execute for testArtifact.
func (r Runner) Args(testArtifact string) []string {
	testArtifact = strings.TrimSpace(testArtifact)
	template := r.Command
	if testArtifact == "" {
		template = r.All
	}
	stem := strings.TrimSuffix(filepath.Base(testArtifact), filepath.Ext(testArtifact))
	args := make([]string, 0, len(template))
	for _, arg := range template {
		arg = strings.ReplaceAll(arg, PlaceholderTest, testArtifact)
		arg = strings.ReplaceAll(arg, PlaceholderStem, stem)
		args = append(args, arg)
	}
	return args
}

// Run executes the tests for testArtifact, or the whole suite when it is empty.
// It returns an error only when the command could not be run to completion.
func (r Runner) Run(ctx context.Context, testArtifact string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	args := r.Args(testArtifact)
	if len(args) == 0 {
		return Result{}, ErrNoCommand
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	res := Result{
		Command:  args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
		}
		return res, fmt.Errorf("testrunner: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Passed = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("testrunner: run %s: %w", args[0], err)
	}
	return res, nil
}
