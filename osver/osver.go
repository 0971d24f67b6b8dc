// Package osver gates installs on a minimum operating system release.
package osver

import (
	"errors"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/remco1271/velopack/hostapi"
)

// ErrParse is the sentinel wrapped by ParseError.
var ErrParse = errors.New("invalid version string")

// ParseError is returned when a version string cannot be parsed.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version string %q: %v", e.Input, e.Err)
}

// Unwrap returns ErrParse so callers can use errors.Is for programmatic
// detection.
func (e *ParseError) Unwrap() error { return ErrParse }

// Triple is a parsed major.minor.build version. Build is zero when the
// input did not carry one.
type Triple struct {
	Major uint64
	Minor uint64
	Build uint64
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Build)
}

// ParseVersion parses a dotted version string into a Triple. Missing
// minor and build fields default to zero.
func ParseVersion(s string) (Triple, error) {
	v, err := goversion.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return Triple{}, &ParseError{Input: s, Err: err}
	}
	seg := v.Segments64()
	var t Triple
	if len(seg) > 0 && seg[0] >= 0 {
		t.Major = uint64(seg[0])
	}
	if len(seg) > 1 && seg[1] >= 0 {
		t.Minor = uint64(seg[1])
	}
	if len(seg) > 2 && seg[2] >= 0 {
		t.Build = uint64(seg[2])
	}
	return t, nil
}

// Gate answers minimum-OS-version checks against the host.
type Gate struct {
	api hostapi.Services
}

// NewGate returns a Gate backed by the given platform services.
func NewGate(api hostapi.Services) *Gate {
	return &Gate{api: api}
}

// MeetsMinimum reports whether the host OS is at least the given
// version. Releases up to 8.1 map onto the dedicated feature tests;
// "11" has no distinct version number at the API level and is detected
// as 10.0 with build 22000 or later.
func (g *Gate) MeetsMinimum(version string) (bool, error) {
	t, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	major, minor, build := t.Major, t.Minor, t.Build

	if major < 8 {
		return g.api.IsWindows7OrGreater()
	}
	if major == 8 {
		if minor >= 1 {
			return g.api.IsWindows8Point1OrGreater()
		}
		return g.api.IsWindows8OrGreater()
	}

	// https://en.wikipedia.org/wiki/List_of_Microsoft_Windows_versions
	if major == 11 {
		if build < 22000 {
			build = 22000
		}
		major = 10
		minor = 0
	}

	if major == 10 && build == 0 {
		return g.api.IsWindows10OrGreater()
	}

	return g.api.IsVersionAtLeast(major, minor, build)
}
