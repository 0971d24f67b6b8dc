package hostapi

import (
	"path"
	"strings"
	"sync"
)

// Fake is an in-memory Services implementation for tests. It reports a
// configurable host version, expands variables from its own Env map, and
// tracks named mutexes per Fake instance.
//
// The zero value behaves like an empty Windows host; populate Major,
// Minor, Build and Env before use.
type Fake struct {
	// Host version reported to version queries.
	Major, Minor, Build uint64

	// VersionErr, when set, is returned by every version query.
	VersionErr error

	// Env backs ExpandEnv. Lookup is case-insensitive like the real
	// Windows environment.
	Env map[string]string

	// Calls records the name of every version query made, in order.
	Calls []string

	mu   sync.Mutex
	held map[string]bool
}

var _ Services = (*Fake)(nil)

func (f *Fake) record(name string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, name)
	f.mu.Unlock()
}

func (f *Fake) atLeast(major, minor, build uint64) (bool, error) {
	if f.VersionErr != nil {
		return false, f.VersionErr
	}
	if f.Major != major {
		return f.Major > major, nil
	}
	if f.Minor != minor {
		return f.Minor > minor, nil
	}
	return f.Build >= build, nil
}

func (f *Fake) IsWindows7OrGreater() (bool, error) {
	f.record("IsWindows7OrGreater")
	return f.atLeast(6, 1, 0)
}

func (f *Fake) IsWindows8OrGreater() (bool, error) {
	f.record("IsWindows8OrGreater")
	return f.atLeast(6, 2, 0)
}

func (f *Fake) IsWindows8Point1OrGreater() (bool, error) {
	f.record("IsWindows8Point1OrGreater")
	return f.atLeast(6, 3, 0)
}

func (f *Fake) IsWindows10OrGreater() (bool, error) {
	f.record("IsWindows10OrGreater")
	return f.atLeast(10, 0, 0)
}

func (f *Fake) IsVersionAtLeast(major, minor, build uint64) (bool, error) {
	f.record("IsVersionAtLeast")
	return f.atLeast(major, minor, build)
}

func (f *Fake) ExpandEnv(s string) (string, error) {
	return expandPercentVars(s, func(name string) (string, bool) {
		for k, v := range f.Env {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
		return "", false
	}), nil
}

// FullPath normalizes Windows-style paths in pure Go: separators are
// unified and '.'/'..' segments collapse. Good enough for containment
// tests on any development host.
func (f *Fake) FullPath(s string) (string, error) {
	return path.Clean(strings.ReplaceAll(s, `\`, "/")), nil
}

type fakeMutexHandle struct {
	f    *Fake
	name string
	once sync.Once
}

func (m *fakeMutexHandle) Close() error {
	m.once.Do(func() {
		m.f.mu.Lock()
		delete(m.f.held, m.name)
		m.f.mu.Unlock()
	})
	return nil
}

func (f *Fake) CreateMutex(name string) (MutexHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[name] {
		return nil, ErrMutexExists
	}
	f.held[name] = true
	return &fakeMutexHandle{f: f, name: name}, nil
}

// Held reports whether the named mutex is currently owned.
func (f *Fake) Held(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[name]
}
