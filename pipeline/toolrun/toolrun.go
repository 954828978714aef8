// Package toolrun wraps external command-line tools behind a single
// invocation contract: argument list in, verified output artifact out, with
// timeout enforcement, bounded stderr capture and ordered fallback chains.
package toolrun

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// stderrTailLimit bounds how much captured stderr a failure carries.
// Diagnostics want the end of the stream, never the whole thing.
const stderrTailLimit = 4 * 1024

// Reason identifies why a single invocation failed.
type Reason int

const (
	ReasonUnavailable Reason = iota // executable not found
	ReasonExecFailed                // ran and exited non-zero
	ReasonTimeout                   // killed after deadline or cancellation
	ReasonOutputMissing             // exited zero but wrote no usable output
)

func (r Reason) String() string {
	switch r {
	case ReasonUnavailable:
		return "unavailable"
	case ReasonExecFailed:
		return "execution failed"
	case ReasonTimeout:
		return "timed out"
	case ReasonOutputMissing:
		return "output missing"
	default:
		return "unknown"
	}
}

// RunError is the typed failure of one invocation.
type RunError struct {
	Tool   string
	Reason Reason
	Stderr string // bounded tail, may be empty
	Err    error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Tool, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ChainError aggregates the per-attempt failures of an exhausted fallback
// chain, in attempt order.
type ChainError struct {
	Attempts []*RunError
}

func (e *ChainError) Error() string {
	return "all tools failed: " + e.Summary()
}

// Summary renders one line per attempt, suitable for API error messages.
func (e *ChainError) Summary() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Tool, a.Reason))
	}
	return strings.Join(parts, "; ")
}

// Invocation describes one external-process call.
type Invocation struct {
	Tool    string        // executable name or absolute path
	Args    []string
	Timeout time.Duration // 0 inherits the caller's context deadline only
	// ExpectedOutput, when set, must exist and be non-empty after a zero
	// exit; some tools exit 0 while silently writing nothing. Any file
	// already at the path is removed before the tool runs, so the check
	// never passes on leftovers from an earlier attempt.
	ExpectedOutput string
}

// Result is the outcome of a successful invocation.
type Result struct {
	Tool     string // which tool in a chain actually ran
	Stdout   []byte
	Stderr   string // bounded tail, kept for logging
	Duration time.Duration
}

// Runner executes invocations. It holds no per-request state and is safe
// for concurrent use.
type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes a single invocation and verifies its expected output.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	path, err := exec.LookPath(inv.Tool)
	if err != nil {
		return nil, &RunError{Tool: inv.Tool, Reason: ReasonUnavailable, Err: err}
	}

	if inv.ExpectedOutput != "" {
		// an earlier chain attempt may have left partial bytes at the output
		// path; verification must only ever see what this invocation wrote
		os.Remove(inv.ExpectedOutput)
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.Command(path, inv.Args...)
	// Own process group so tools that fork (soffice, chrome) die with their
	// children on timeout.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &RunError{Tool: inv.Tool, Reason: ReasonExecFailed, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-runCtx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		r.logger.Warn("tool killed", "tool", inv.Tool, "after", time.Since(start), "cause", runCtx.Err())
		return nil, &RunError{Tool: inv.Tool, Reason: ReasonTimeout, Stderr: tail(stderr.Bytes()), Err: runCtx.Err()}
	case err = <-done:
	}
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Warn("tool failed", "tool", inv.Tool, "error", err, "stderr", tail(stderr.Bytes()))
		return nil, &RunError{Tool: inv.Tool, Reason: ReasonExecFailed, Stderr: tail(stderr.Bytes()), Err: err}
	}

	if inv.ExpectedOutput != "" {
		info, statErr := os.Stat(inv.ExpectedOutput)
		if statErr != nil || info.Size() == 0 {
			return nil, &RunError{Tool: inv.Tool, Reason: ReasonOutputMissing, Stderr: tail(stderr.Bytes()), Err: statErr}
		}
	}

	r.logger.Debug("tool succeeded", "tool", inv.Tool, "duration", elapsed)
	return &Result{Tool: inv.Tool, Stdout: stdout.Bytes(), Stderr: tail(stderr.Bytes()), Duration: elapsed}, nil
}

// RunChain tries each invocation in order. A tool that is unavailable or
// exits non-zero hands over to the next entry; a timeout or missing output
// aborts immediately since retrying elsewhere cannot help the request's
// deadline and silent-failure modes are tool-specific. When every entry has
// failed the aggregated ChainError is returned.
func (r *Runner) RunChain(ctx context.Context, chain []Invocation) (*Result, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("empty tool chain")
	}
	attempts := make([]*RunError, 0, len(chain))
	for _, inv := range chain {
		res, err := r.Run(ctx, inv)
		if err == nil {
			return res, nil
		}
		runErr, ok := err.(*RunError)
		if !ok {
			return nil, err
		}
		attempts = append(attempts, runErr)
		if runErr.Reason == ReasonTimeout || runErr.Reason == ReasonOutputMissing {
			if len(chain) > 1 {
				r.logger.Warn("tool chain aborted", "tool", inv.Tool, "reason", runErr.Reason.String())
			}
			return nil, err
		}
		r.logger.Info("falling back to next tool", "failed", inv.Tool, "reason", runErr.Reason.String())
	}
	if len(attempts) == 1 {
		// single-entry chains keep their precise failure kind
		return nil, attempts[0]
	}
	return nil, &ChainError{Attempts: attempts}
}

// tail returns at most the last stderrTailLimit bytes as a trimmed string.
func tail(b []byte) string {
	if len(b) > stderrTailLimit {
		b = b[len(b)-stderrTailLimit:]
	}
	return strings.TrimSpace(string(b))
}
