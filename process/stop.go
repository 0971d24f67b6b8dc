package process

import (
	"fmt"
	"os"

	gops "github.com/shirou/gopsutil/v4/process"

	"github.com/remco1271/velopack/logging"
)

// SubPathChecker decides whether a path lies inside a parent directory.
// *paths.Checker implements it.
type SubPathChecker interface {
	IsSubPath(path, parent string) (bool, error)
}

// KillPackageProcesses force-terminates every process whose executable
// lives under the package root, except the calling process. It is
// best-effort: per-process failures are logged and skipped. It returns
// the number of processes killed and the first kill failure, if any.
func KillPackageProcesses(checker SubPathChecker, rootPath string, log logging.Logger) (int, error) {
	log = logging.OrNoop(log)

	procs, err := gops.Processes()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	self := os.Getpid()
	killed := 0
	var firstErr error
	for _, p := range procs {
		if int(p.Pid) == self {
			continue
		}
		exe, err := p.Exe()
		if err != nil || exe == "" {
			// already gone, or not ours to inspect
			continue
		}
		inside, err := checker.IsSubPath(exe, rootPath)
		if err != nil || !inside {
			continue
		}
		if err := p.Kill(); err != nil {
			log.Warn("failed to stop package process", "pid", p.Pid, "exe", exe, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info("stopped package process", "pid", p.Pid, "exe", exe)
		killed++
	}
	return killed, firstErr
}
