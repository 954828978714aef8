package toolrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testRunner() *Runner {
	return NewRunner(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
}

// writeStubTool drops an executable shell script standing in for an external
// binary and returns its absolute path.
func writeStubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("Failed to write stub tool: %v", err)
	}
	return path
}

func TestRunSuccessWithExpectedOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.pdf")
	tool := writeStubTool(t, dir, "converter", `echo "converted" > "$1"`+"\necho stdout-line\n")

	res, err := testRunner().Run(context.Background(), Invocation{
		Tool:           tool,
		Args:           []string{out},
		Timeout:        5 * time.Second,
		ExpectedOutput: out,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(string(res.Stdout), "stdout-line") {
		t.Errorf("Stdout = %q, want captured stdout", res.Stdout)
	}
	if res.Tool != tool {
		t.Errorf("Result tool = %q, want %q", res.Tool, tool)
	}
}

func TestRunUnavailableTool(t *testing.T) {
	_, err := testRunner().Run(context.Background(), Invocation{
		Tool: "definitely-not-a-real-binary-name",
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonUnavailable {
		t.Errorf("Reason = %v, want ReasonUnavailable", runErr.Reason)
	}
}

func TestRunNonZeroExitCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	tool := writeStubTool(t, dir, "failing", "echo 'boom: cannot parse input' >&2\nexit 3\n")

	_, err := testRunner().Run(context.Background(), Invocation{Tool: tool, Timeout: 5 * time.Second})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonExecFailed {
		t.Errorf("Reason = %v, want ReasonExecFailed", runErr.Reason)
	}
	if !strings.Contains(runErr.Stderr, "cannot parse input") {
		t.Errorf("Stderr = %q, want captured diagnostics", runErr.Stderr)
	}
}

func TestRunStderrTailIsBounded(t *testing.T) {
	dir := t.TempDir()
	// ~40 KB of stderr; the error must keep only the tail
	tool := writeStubTool(t, dir, "noisy",
		`i=0
while [ $i -lt 1000 ]; do
  echo "filler line number $i padding padding padding" >&2
  i=$((i+1))
done
echo "FINAL-MARKER" >&2
exit 1
`)

	_, err := testRunner().Run(context.Background(), Invocation{Tool: tool, Timeout: 10 * time.Second})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if len(runErr.Stderr) > stderrTailLimit {
		t.Errorf("Stderr tail is %d bytes, limit is %d", len(runErr.Stderr), stderrTailLimit)
	}
	if !strings.Contains(runErr.Stderr, "FINAL-MARKER") {
		t.Error("Stderr tail should keep the end of the stream")
	}
	if strings.Contains(runErr.Stderr, "filler line number 0 ") {
		t.Error("Stderr tail should drop the start of the stream")
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	dir := t.TempDir()
	tool := writeStubTool(t, dir, "sleeper", "sleep 30\n")

	start := time.Now()
	_, err := testRunner().Run(context.Background(), Invocation{
		Tool:    tool,
		Timeout: 200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonTimeout {
		t.Errorf("Reason = %v, want ReasonTimeout", runErr.Reason)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Timed-out tool took %v to return, should be killed promptly", elapsed)
	}
}

func TestRunCancellationBehavesLikeTimeout(t *testing.T) {
	dir := t.TempDir()
	tool := writeStubTool(t, dir, "sleeper", "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := testRunner().Run(ctx, Invocation{Tool: tool})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonTimeout {
		t.Errorf("Reason = %v, want ReasonTimeout on cancellation", runErr.Reason)
	}
}

func TestRunOutputMissing(t *testing.T) {
	dir := t.TempDir()
	// exits 0 but never writes the expected artifact
	tool := writeStubTool(t, dir, "silent", "exit 0\n")

	_, err := testRunner().Run(context.Background(), Invocation{
		Tool:           tool,
		Timeout:        5 * time.Second,
		ExpectedOutput: filepath.Join(dir, "never-written.pdf"),
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonOutputMissing {
		t.Errorf("Reason = %v, want ReasonOutputMissing", runErr.Reason)
	}
}

func TestRunIgnoresStaleExpectedOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.pdf")
	if err := os.WriteFile(out, []byte("leftover bytes from an earlier attempt"), 0o644); err != nil {
		t.Fatalf("Failed to seed stale output: %v", err)
	}
	tool := writeStubTool(t, dir, "silent", "exit 0\n")

	_, err := testRunner().Run(context.Background(), Invocation{
		Tool:           tool,
		Timeout:        5 * time.Second,
		ExpectedOutput: out,
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonOutputMissing {
		t.Errorf("Reason = %v, want ReasonOutputMissing; verification must not pass on stale bytes", runErr.Reason)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("Stale output file should be removed before the tool runs")
	}
}

func TestChainFallbackCannotInheritPartialOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.pdf")
	// primary writes garbage then dies; fallback exits clean without writing
	primary := writeStubTool(t, dir, "primary", `printf 'PARTIAL GARBAGE' > "`+out+`"`+"\nexit 1\n")
	fallback := writeStubTool(t, dir, "fallback", "exit 0\n")

	_, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: primary, Timeout: 5 * time.Second, ExpectedOutput: out},
		{Tool: fallback, Timeout: 5 * time.Second, ExpectedOutput: out},
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("RunChain returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonOutputMissing {
		t.Errorf("Reason = %v, want ReasonOutputMissing from the fallback", runErr.Reason)
	}
	if data, readErr := os.ReadFile(out); readErr == nil {
		t.Errorf("Primary's partial output %q survived the chain", data)
	}
}

func TestRunOutputEmptyCountsAsMissing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "empty.pdf")
	tool := writeStubTool(t, dir, "toucher", `: > "$1"`+"\n")

	_, err := testRunner().Run(context.Background(), Invocation{
		Tool:           tool,
		Args:           []string{out},
		Timeout:        5 * time.Second,
		ExpectedOutput: out,
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Run returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonOutputMissing {
		t.Errorf("Reason = %v, want ReasonOutputMissing for a zero-byte artifact", runErr.Reason)
	}
}

func TestRunChainFallsBackFromUnavailable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")
	fallback := writeStubTool(t, dir, "fallback", `echo data > "$1"`+"\n")

	res, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: "missing-primary-tool", Args: []string{out}, ExpectedOutput: out},
		{Tool: fallback, Args: []string{out}, Timeout: 5 * time.Second, ExpectedOutput: out},
	})
	if err != nil {
		t.Fatalf("RunChain failed: %v", err)
	}
	if res.Tool != fallback {
		t.Errorf("Result tool = %q, want the fallback %q", res.Tool, fallback)
	}
}

func TestRunChainFallsBackFromExecFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")
	broken := writeStubTool(t, dir, "broken", "echo nope >&2\nexit 1\n")
	fallback := writeStubTool(t, dir, "fallback", `echo data > "$1"`+"\n")

	res, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: broken, Args: []string{out}, Timeout: 5 * time.Second, ExpectedOutput: out},
		{Tool: fallback, Args: []string{out}, Timeout: 5 * time.Second, ExpectedOutput: out},
	})
	if err != nil {
		t.Fatalf("RunChain failed: %v", err)
	}
	if res.Tool != fallback {
		t.Errorf("Result tool = %q, want the fallback %q", res.Tool, fallback)
	}
}

func TestRunChainTimeoutAborts(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "fallback-ran")
	slow := writeStubTool(t, dir, "slow", "sleep 30\n")
	fallback := writeStubTool(t, dir, "fallback", `touch `+marker+"\n")

	_, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: slow, Timeout: 200 * time.Millisecond},
		{Tool: fallback, Timeout: 5 * time.Second},
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("RunChain returned %T, want *RunError", err)
	}
	if runErr.Reason != ReasonTimeout {
		t.Errorf("Reason = %v, want ReasonTimeout", runErr.Reason)
	}
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("Fallback must not run after a timeout")
	}
}

func TestRunChainExhaustionAggregates(t *testing.T) {
	dir := t.TempDir()
	broken := writeStubTool(t, dir, "broken", "exit 2\n")

	_, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: "missing-primary-tool"},
		{Tool: broken, Timeout: 5 * time.Second},
	})

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("RunChain returned %T, want *ChainError", err)
	}
	if len(chainErr.Attempts) != 2 {
		t.Fatalf("ChainError has %d attempts, want 2", len(chainErr.Attempts))
	}
	if chainErr.Attempts[0].Reason != ReasonUnavailable {
		t.Errorf("First attempt reason = %v, want ReasonUnavailable", chainErr.Attempts[0].Reason)
	}
	if chainErr.Attempts[1].Reason != ReasonExecFailed {
		t.Errorf("Second attempt reason = %v, want ReasonExecFailed", chainErr.Attempts[1].Reason)
	}
	summary := chainErr.Summary()
	if !strings.Contains(summary, "unavailable") || !strings.Contains(summary, "execution failed") {
		t.Errorf("Summary = %q, want one line per attempt", summary)
	}
}

func TestRunChainSingleEntryKeepsPreciseFailure(t *testing.T) {
	_, err := testRunner().RunChain(context.Background(), []Invocation{
		{Tool: "missing-only-tool"},
	})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("RunChain returned %T, want *RunError for a single-entry chain", err)
	}
	if runErr.Reason != ReasonUnavailable {
		t.Errorf("Reason = %v, want ReasonUnavailable", runErr.Reason)
	}
}

func TestRunChainEmpty(t *testing.T) {
	if _, err := testRunner().RunChain(context.Background(), nil); err == nil {
		t.Error("Empty chain should error")
	}
}
