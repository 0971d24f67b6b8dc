package process_test

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	gops "github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remco1271/velopack/hostapi"
	"github.com/remco1271/velopack/internal/testutil"
	"github.com/remco1271/velopack/paths"
	"github.com/remco1271/velopack/process"
)

// shellCmd wraps a small script in the host shell so process tests run
// on any development platform.
func shellCmd(script string) (exe string, args []string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", []string{"/c", script}
	}
	return "/bin/sh", []string{"-c", script}
}

// sleepCmd blocks for roughly five seconds on either platform.
func sleepCmd() (exe string, args []string) {
	if runtime.GOOS == "windows" {
		// ping waits one second between echoes
		return shellCmd("ping -n 6 127.0.0.1 >nul")
	}
	return shellCmd("sleep 5")
}

func TestRunAndWaitCapturesOutput(t *testing.T) {
	r := process.NewRunner(nil)
	exe, args := shellCmd("echo hello-from-hook")

	out, err := r.RunAndWait(context.Background(), exe, args, t.TempDir(), 30*time.Second)
	require.NoError(t, err)
	assert.Contains(t, out, "hello-from-hook")
}

func TestRunAndWaitRunsInWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pwd is not a cmd.exe builtin")
	}
	dir := t.TempDir()
	r := process.NewRunner(nil)
	exe, args := shellCmd("pwd")

	out, err := r.RunAndWait(context.Background(), exe, args, dir, 30*time.Second)
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestRunAndWaitNonZeroExit(t *testing.T) {
	log := &testutil.RecordingLogger{}
	r := process.NewRunner(log)
	script := "echo to-stdout; echo to-stderr 1>&2; exit 3"
	if runtime.GOOS == "windows" {
		script = "echo to-stdout& echo to-stderr 1>&2& exit 3"
	}
	exe, args := shellCmd(script)

	_, err := r.RunAndWait(context.Background(), exe, args, t.TempDir(), 30*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrNonZeroExit)

	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	// single stream: stdout first, stderr appended
	assert.Contains(t, exitErr.Output, "to-stdout")
	assert.Contains(t, exitErr.Output, "to-stderr")
	assert.Less(t,
		strings.Index(exitErr.Output, "to-stdout"),
		strings.Index(exitErr.Output, "to-stderr"))

	assert.True(t, log.Has("warn", "non-zero exit code"), log.String())
}

func TestRunAndWaitTimeoutKillsChild(t *testing.T) {
	r := process.NewRunner(nil)
	exe, args := sleepCmd()

	start := time.Now()
	_, err := r.RunAndWait(context.Background(), exe, args, t.TempDir(), 1*time.Second)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrTimedOut)

	var toErr *process.TimeoutError
	require.ErrorAs(t, err, &toErr)
	assert.Equal(t, 1*time.Second, toErr.Timeout)

	// the child was force-killed, not waited out
	assert.Less(t, elapsed, 4*time.Second)
}

func TestRunAndWaitNotHeldOpenByGrandchild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("background shell fixture")
	}
	r := process.NewRunner(nil)

	// the child exits immediately but its backgrounded grandchild
	// inherits the output pipes; the wait must not last until the
	// grandchild releases them
	exe, args := shellCmd("echo started; sleep 20 & exit 0")
	start := time.Now()
	out, err := r.RunAndWait(context.Background(), exe, args, t.TempDir(), 10*time.Second)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, out, "started")

	// same leak while the child itself overruns its timeout
	exe, args = shellCmd("sleep 20 & exec sleep 20")
	start = time.Now()
	_, err = r.RunAndWait(context.Background(), exe, args, t.TempDir(), 1*time.Second)
	assert.ErrorIs(t, err, process.ErrTimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunAndWaitTimeoutLeavesNoChild(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on /proc exe resolution and /bin/sleep")
	}
	dir := t.TempDir()
	sleepCopy := filepath.Join(dir, "sleep")
	copyFile(t, "/bin/sleep", sleepCopy)

	r := process.NewRunner(nil)
	_, err := r.RunAndWait(context.Background(), sleepCopy, []string{"60"}, dir, 1*time.Second)
	assert.ErrorIs(t, err, process.ErrTimedOut)

	// the expired child must have been killed and reaped, not merely
	// abandoned
	checker := paths.NewChecker(hostapi.Native())
	procs, perr := gops.Processes()
	require.NoError(t, perr)
	for _, p := range procs {
		exe, err := p.Exe()
		if err != nil || exe == "" {
			continue
		}
		inside, err := checker.IsSubPath(exe, dir)
		require.NoError(t, err)
		assert.False(t, inside, "pid %d still running from %s", p.Pid, exe)
	}
}

func TestRunAndWaitNoTimeoutWaits(t *testing.T) {
	r := process.NewRunner(nil)
	exe, args := shellCmd("echo done")

	out, err := r.RunAndWait(context.Background(), exe, args, t.TempDir(), 0)
	require.NoError(t, err)
	assert.Contains(t, out, "done")
}

func TestRunAndWaitSpawnFailure(t *testing.T) {
	r := process.NewRunner(nil)

	_, err := r.RunAndWait(context.Background(), "/does/not/exist-velopack", nil, t.TempDir(), time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrSpawn)
}

func TestRunDetached(t *testing.T) {
	r := process.NewRunner(nil)
	exe, args := shellCmd("exit 0")

	require.NoError(t, r.RunDetached(exe, args, t.TempDir()))

	err := r.RunDetached("/does/not/exist-velopack", nil, t.TempDir())
	assert.ErrorIs(t, err, process.ErrSpawn)
}

func TestRunRawDetached(t *testing.T) {
	r := process.NewRunner(nil)
	var exe string
	if runtime.GOOS == "windows" {
		exe = "cmd.exe"
	} else {
		exe = "/bin/sh"
	}

	require.NoError(t, r.RunRawDetached(exe, rawExitArgs(), t.TempDir()))

	err := r.RunRawDetached("/does/not/exist-velopack", "whatever", t.TempDir())
	assert.ErrorIs(t, err, process.ErrSpawn)
}

func rawExitArgs() string {
	if runtime.GOOS == "windows" {
		return "/c exit 0"
	}
	// off Windows the raw string arrives as a single argument
	return "-version"
}
