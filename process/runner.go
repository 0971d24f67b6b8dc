// Package process spawns and supervises the installer's child
// processes: console windows are suppressed, output is captured, waits
// are bounded, and expired children are force-killed.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/remco1271/velopack/logging"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrSpawn       = errors.New("process spawn failed")
	ErrTimedOut    = errors.New("process timed out")
	ErrNonZeroExit = errors.New("process exited with non-zero exit code")
)

// SpawnError reports that a child process could not be started.
type SpawnError struct {
	Exe string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Exe, e.Err)
}

func (e *SpawnError) Unwrap() error { return ErrSpawn }

// TimeoutError reports that a child did not exit within its bounded
// wait and was force-killed.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimedOut }

// ExitError reports a non-zero exit code together with the captured
// output stream.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with non-zero exit code: %d", e.Code)
}

func (e *ExitError) Unwrap() error { return ErrNonZeroExit }

// pipeWaitDelay bounds how long Wait may keep blocking on the child's
// output pipes after the child itself is gone. A child that hands its
// pipes to a background process it spawned would otherwise hold the
// wait open until that process exits.
const pipeWaitDelay = time.Second

// Runner executes child processes on behalf of the installer.
type Runner struct {
	log logging.Logger
}

// NewRunner returns a Runner reporting through the given logger.
func NewRunner(log logging.Logger) *Runner {
	return &Runner{log: logging.OrNoop(log)}
}

// RunAndWait spawns exe with args in workDir, console suppressed, and
// waits for it to exit. Standard output and standard error are captured
// into a single stream, stdout first. A timeout greater than zero
// bounds the wait; on expiry the child is force-killed and a
// TimeoutError returned. timeout == 0 waits indefinitely for the child,
// though pipes it passed on to a longer-lived process are abandoned
// shortly after it exits rather than waited on.
//
// A zero exit code yields the captured output, decoded permissively
// (invalid byte sequences are replaced, never fatal). A non-zero exit
// code yields an ExitError carrying the same output.
func (r *Runner) RunAndWait(ctx context.Context, exe string, args []string, workDir string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = workDir
	cmd.WaitDelay = pipeWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	suppressConsole(cmd)

	if err := cmd.Start(); err != nil {
		return "", &SpawnError{Exe: exe, Err: err}
	}
	// best-effort: let the child bring itself to the foreground
	allowSetForeground(cmd.Process.Pid)

	waitErr := cmd.Wait()
	output := decodeOutput(&stdout, &stderr)

	if waitErr != nil {
		// the child exited cleanly but something it spawned still held
		// the output pipes; Wait abandoned them after pipeWaitDelay
		if errors.Is(waitErr, exec.ErrWaitDelay) {
			return output, nil
		}
		// CommandContext already killed the child on deadline expiry
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Timeout: timeout}
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			r.log.Warn("process exited with non-zero exit code", "exe", exe, "code", code)
			if output != "" {
				r.log.Warn("process output", "output", output)
			}
			return "", &ExitError{Code: code, Output: output}
		}
		return "", fmt.Errorf("wait for %s: %w", exe, waitErr)
	}

	return output, nil
}

// RunDetached spawns exe with args in workDir, console suppressed, and
// returns as soon as the spawn succeeds. The child is never waited on;
// only a spawn failure is reported.
func (r *Runner) RunDetached(exe string, args []string, workDir string) error {
	cmd := exec.Command(exe, args...)
	cmd.Dir = workDir
	suppressConsole(cmd)
	return r.startDetached(cmd, exe)
}

// RunRawDetached is RunDetached for targets that need a verbatim,
// pre-formatted command line: rawArgs is handed to the child unescaped
// instead of as a discrete argument list.
func (r *Runner) RunRawDetached(exe string, rawArgs string, workDir string) error {
	cmd := exec.Command(exe)
	cmd.Dir = workDir
	suppressConsole(cmd)
	setRawCommandLine(cmd, rawArgs)
	return r.startDetached(cmd, exe)
}

func (r *Runner) startDetached(cmd *exec.Cmd, exe string) error {
	if err := cmd.Start(); err != nil {
		return &SpawnError{Exe: exe, Err: err}
	}
	allowSetForeground(cmd.Process.Pid)
	// intentionally not reaped; drop the handle
	_ = cmd.Process.Release()
	return nil
}

// decodeOutput concatenates the captured streams, stdout first, and
// replaces any invalid UTF-8 so decoding can never fail.
func decodeOutput(stdout, stderr *bytes.Buffer) string {
	combined := stdout.String() + stderr.String()
	return strings.ToValidUTF8(combined, string(utf8.RuneError))
}
