// Package hooks runs application lifecycle hook executables around
// install and update actions. Hooks are best-effort by design: a
// missing or malfunctioning hook must never abort the surrounding
// install, so every failure here is logged and swallowed.
package hooks

import (
	"context"
	"time"

	"github.com/remco1271/velopack/logging"
	"github.com/remco1271/velopack/process"
)

// Manifest is the application descriptor consumed, not owned, by the
// hook runner.
type Manifest interface {
	// ID returns the application id.
	ID() string
	// Version returns the application version string.
	Version() string
	// CurrentVersionPath resolves the current-version install directory
	// under the given root install path.
	CurrentVersionPath(root string) string
	// MainExecutablePath resolves the application's main executable
	// under the given root install path.
	MainExecutablePath(root string) string
}

// Runner executes lifecycle hooks.
type Runner struct {
	proc    *process.Runner
	checker process.SubPathChecker
	log     logging.Logger
}

// NewRunner returns a hook runner. The checker scopes the post-hook
// process cleanup to the package root.
func NewRunner(proc *process.Runner, checker process.SubPathChecker, log logging.Logger) *Runner {
	return &Runner{proc: proc, checker: checker, log: logging.OrNoop(log)}
}

// RunHook invokes the application's main executable with the hook name
// and version as arguments, in the current-version directory, bounded
// by timeout. Failures are logged and discarded. Afterwards any
// processes the hook left behind under rootPath are force-stopped,
// also best-effort.
func (r *Runner) RunHook(ctx context.Context, m Manifest, rootPath, hookName string, timeout time.Duration) {
	start := time.Now()
	currentDir := m.CurrentVersionPath(rootPath)
	mainExe := m.MainExecutablePath(rootPath)

	r.log.Info("running hook", "hook", hookName, "app", m.ID())
	args := []string{hookName, m.Version()}
	if _, err := r.proc.RunAndWait(ctx, mainExe, args, currentDir, timeout); err != nil {
		r.log.Warn("error running hook", "hook", hookName, "error", err, "elapsed", time.Since(start))
	} else {
		r.log.Info("hook executed successfully", "hook", hookName, "elapsed", time.Since(start))
	}

	// in case the hook left running processes
	if _, err := process.KillPackageProcesses(r.checker, rootPath, r.log); err != nil {
		r.log.Warn("package process cleanup failed", "root", rootPath, "error", err)
	}
}
