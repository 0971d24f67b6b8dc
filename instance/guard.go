// Package instance enforces system-wide single-instance semantics for
// the installer/updater of a given application.
package instance

import (
	"errors"

	"github.com/remco1271/velopack/hostapi"
	"github.com/remco1271/velopack/logging"
)

// mutexPrefix keeps installer mutexes collision-resistant against other
// software using the global namespace.
const mutexPrefix = "velopack-"

// ErrAlreadyRunning means another installer or updater process for this
// application holds the mutex; quit that process and try again.
var ErrAlreadyRunning = errors.New("another installer or updater for this application is running")

// Guard owns the application's host-wide mutex handle. It is created
// only by a successful Acquire and must be released exactly once on
// every exit path; defer Release right after acquiring.
type Guard struct {
	handle hostapi.MutexHandle
	name   string
	log    logging.Logger
}

// MutexName returns the deterministic mutex name for an application id.
func MutexName(appID string) string {
	return mutexPrefix + appID
}

// Acquire creates the application's global mutex, requesting immediate
// ownership. It returns ErrAlreadyRunning when another process owns the
// mutex; the just-created handle, if any, is closed by the platform
// layer before returning.
func Acquire(api hostapi.Services, appID string, log logging.Logger) (*Guard, error) {
	log = logging.OrNoop(log)
	name := MutexName(appID)
	log.Info("attempting to open global system mutex", "name", name)

	handle, err := api.CreateMutex(name)
	if err != nil {
		if errors.Is(err, hostapi.ErrMutexExists) {
			return nil, ErrAlreadyRunning
		}
		return nil, err
	}
	return &Guard{handle: handle, name: name, log: log}, nil
}

// Release closes the mutex handle, allowing a subsequent Acquire by any
// process to succeed. It is safe to call multiple times; only the first
// call closes the handle.
func (g *Guard) Release() {
	if g == nil || g.handle == nil {
		return
	}
	if err := g.handle.Close(); err != nil {
		g.log.Warn("failed to close global mutex", "name", g.name, "error", err)
	}
	g.handle = nil
}
