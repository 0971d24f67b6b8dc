// Package hostapi abstracts the raw operating system facilities the
// installer library depends on: version feature tests, environment
// variable expansion, path canonicalization, and host-wide named mutual
// exclusion.
//
// One concrete implementation exists per target host (see Native), plus
// an injectable Fake so gate and containment logic can be tested without
// a real OS.
package hostapi

import (
	"errors"
	"fmt"
	"strings"
)

// Services is the single OS surface consumed by the rest of the library.
type Services interface {
	// IsWindows7OrGreater reports whether the host is at least the
	// earliest broadly supported release.
	IsWindows7OrGreater() (bool, error)

	// IsWindows8OrGreater reports whether the host is Windows 8 or newer.
	IsWindows8OrGreater() (bool, error)

	// IsWindows8Point1OrGreater reports whether the host is Windows 8.1 or newer.
	IsWindows8Point1OrGreater() (bool, error)

	// IsWindows10OrGreater reports whether the host is Windows 10 or
	// newer, without regard to build number.
	IsWindows10OrGreater() (bool, error)

	// IsVersionAtLeast performs a generic greater-than-or-equal comparison
	// of the host version against the given major.minor.build triple.
	IsVersionAtLeast(major, minor, build uint64) (bool, error)

	// ExpandEnv expands %VAR% style environment references in s.
	// Unrecognized references are left intact.
	ExpandEnv(s string) (string, error)

	// FullPath resolves s into its fully-qualified normalized form,
	// collapsing '.'/'..' and redundant separators. The target does not
	// have to exist on disk.
	FullPath(s string) (string, error)

	// CreateMutex creates a host-wide mutual-exclusion object with the
	// given name, requesting immediate ownership. If an object of that
	// name is already owned elsewhere, the error wraps ErrMutexExists
	// and no handle is returned.
	CreateMutex(name string) (MutexHandle, error)
}

// MutexHandle owns one OS synchronization handle. Closing it releases
// ownership so a subsequent CreateMutex for the same name succeeds.
type MutexHandle interface {
	Close() error
}

// ErrMutexExists signals that a named mutex is already owned by another
// process.
var ErrMutexExists = errors.New("mutex already exists")

// ErrOSAPI is the sentinel wrapped by OSError for errors.Is checks.
var ErrOSAPI = errors.New("os api failure")

// OSError reports an unexpected native failure.
type OSError struct {
	Context string // the OS call or facility that failed
	Code    uint64 // native error code, 0 when not applicable
	Err     error  // underlying error, may be nil
}

func (e *OSError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("%s: error code %d", e.Context, e.Code)
}

// Unwrap returns ErrOSAPI so callers can use errors.Is for programmatic
// detection.
func (e *OSError) Unwrap() error { return ErrOSAPI }

// expandPercentVars expands %VAR% references using lookup. References
// that lookup cannot resolve are left verbatim, matching the behavior of
// ExpandEnvironmentStringsW for undefined variables.
func expandPercentVars(s string, lookup func(string) (string, bool)) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start + 1
		name := s[start+1 : end]
		if val, ok := lookup(name); ok {
			b.WriteString(s[:start])
			b.WriteString(val)
			s = s[end+1:]
			continue
		}
		// keep the lone '%' and keep scanning; "%undefined%" stays as-is
		b.WriteString(s[:start+1])
		s = s[start+1:]
	}
}
