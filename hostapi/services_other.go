//go:build !windows

package hostapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goversion "github.com/hashicorp/go-version"
	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/sys/unix"
)

// portableServices is the best-effort implementation for non-Windows
// hosts. Version feature tests answer against the kernel version, which
// makes them permissive on any modern Unix; gate logic that needs exact
// Windows semantics is tested through the Fake instead.
type portableServices struct{}

// Native returns the platform services for the current host.
func Native() Services {
	return portableServices{}
}

var (
	hostVersionOnce sync.Once
	hostVersion     *goversion.Version
	hostVersionErr  error
)

// hostKernelVersion probes and caches the host kernel version.
func hostKernelVersion() (*goversion.Version, error) {
	hostVersionOnce.Do(func() {
		info, err := host.Info()
		if err != nil {
			hostVersionErr = &OSError{Context: "host info", Err: err}
			return
		}
		raw := leadingVersionDigits(info.KernelVersion)
		if raw == "" {
			hostVersionErr = &OSError{Context: "host info", Err: fmt.Errorf("unrecognized kernel version %q", info.KernelVersion)}
			return
		}
		hostVersion, hostVersionErr = goversion.NewVersion(raw)
	})
	return hostVersion, hostVersionErr
}

// leadingVersionDigits trims a kernel version like "6.8.0-45-generic"
// down to its numeric dotted prefix.
func leadingVersionDigits(s string) string {
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return strings.Trim(s[:end], ".")
}

func (p portableServices) IsWindows7OrGreater() (bool, error) {
	return p.IsVersionAtLeast(6, 1, 0)
}

func (p portableServices) IsWindows8OrGreater() (bool, error) {
	return p.IsVersionAtLeast(6, 2, 0)
}

func (p portableServices) IsWindows8Point1OrGreater() (bool, error) {
	return p.IsVersionAtLeast(6, 3, 0)
}

func (p portableServices) IsWindows10OrGreater() (bool, error) {
	return p.IsVersionAtLeast(10, 0, 0)
}

func (p portableServices) IsVersionAtLeast(major, minor, build uint64) (bool, error) {
	have, err := hostKernelVersion()
	if err != nil {
		return false, err
	}
	want, err := goversion.NewVersion(fmt.Sprintf("%d.%d.%d", major, minor, build))
	if err != nil {
		return false, &OSError{Context: "version compare", Err: err}
	}
	return have.GreaterThanOrEqual(want), nil
}

func (portableServices) ExpandEnv(s string) (string, error) {
	return expandPercentVars(s, os.LookupEnv), nil
}

func (portableServices) FullPath(s string) (string, error) {
	abs, err := filepath.Abs(s)
	if err != nil {
		return "", &OSError{Context: "resolve path", Err: err}
	}
	return abs, nil
}

// flockMutexHandle holds an exclusive flock on a well-known file. The
// kernel releases the lock automatically when the descriptor is closed,
// including on process crash, so an orphaned zero-byte file is harmless.
type flockMutexHandle struct {
	file *os.File
}

func (m *flockMutexHandle) Close() error {
	// LOCK_UN before Close for explicitness; Close also releases the flock.
	if err := unix.Flock(int(m.file.Fd()), unix.LOCK_UN); err != nil {
		m.file.Close()
		return &OSError{Context: "flock unlock", Err: err}
	}
	if err := m.file.Close(); err != nil {
		return &OSError{Context: "close lock file", Err: err}
	}
	return nil
}

func (portableServices) CreateMutex(name string) (MutexHandle, error) {
	path := filepath.Join(lockDir(), sanitizeLockName(name)+".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, &OSError{Context: "open lock file", Err: err}
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrMutexExists
		}
		return nil, &OSError{Context: "flock", Err: err}
	}
	return &flockMutexHandle{file: f}, nil
}

// lockDir prefers $XDG_RUNTIME_DIR (per-user tmpfs, auto-cleaned) and
// falls back to the system temp directory.
func lockDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// sanitizeLockName maps a mutex name onto a safe file name.
func sanitizeLockName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
