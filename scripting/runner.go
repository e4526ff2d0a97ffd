// Package scripting runs external executables with bounded timeouts: the AI
// tagger, and admin-configured custom scripts routed by file extension or
// fired on a schedule.
package scripting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimedOut is returned when a child process exceeds its wall-clock budget
// and is forcibly terminated
var ErrTimedOut = errors.New("execution timed out")

// Result captures a finished child process. Stdout/Stderr hold whatever was
// written before exit or termination
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner is the shared bounded-timeout child-process capability. every
// external invocation in the service goes through it; there is no unbounded
// wait anywhere
type Runner struct{}

// Run executes bin with args, killing the process once timeout elapses.
// a nonzero exit is not an error here; callers inspect ExitCode. ErrTimedOut
// is returned on expiry alongside any partial output
func (Runner) Run(bin string, args []string, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%w after %s: %s %v", ErrTimedOut, timeout, bin, args)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// process ran and exited nonzero; report via ExitCode
			return res, nil
		}
		return res, fmt.Errorf("failed to run %s: %w", bin, err)
	}

	return res, nil
}
