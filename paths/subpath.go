// Package paths decides filesystem containment questions for the
// installer, robust to case folding, separator style, environment
// variable references, and non-canonical segments.
package paths

import (
	"strings"

	"github.com/remco1271/velopack/hostapi"
)

// Checker answers sub-path containment queries.
type Checker struct {
	api hostapi.Services
}

// NewChecker returns a Checker backed by the given platform services.
func NewChecker(api hostapi.Services) *Checker {
	return &Checker{api: api}
}

// IsSubPath reports whether path is located inside parent. Host paths
// are treated case-insensitively. Empty inputs and inputs that are not
// absolute after environment expansion are never contained; any other
// failure during expansion or canonicalization propagates.
//
// The final comparison is by path component, not raw string prefix, so
// a sibling like `C:\AppData\JamLogicDev` is not mistaken for a child of
// `C:\AppData\JamLogic`.
func (c *Checker) IsSubPath(path, parent string) (bool, error) {
	if path == "" || parent == "" {
		return false, nil
	}

	p := strings.ToLower(path)
	par := strings.ToLower(parent)
	par = strings.TrimRight(par, `\/`) + separatorFor(par)

	// quick bails before the more expensive normalization
	if len(p) < len(par) {
		return false, nil
	}
	if strings.HasPrefix(p, par) {
		return true, nil
	}

	p, err := c.api.ExpandEnv(p)
	if err != nil {
		return false, err
	}
	par, err = c.api.ExpandEnv(par)
	if err != nil {
		return false, err
	}

	// relative inputs (e.g. shortcut targets that expansion could not
	// resolve) cannot be reliably decided here
	if !isAbsolute(p) || !isAbsolute(par) {
		return false, nil
	}

	p, err = c.api.FullPath(p)
	if err != nil {
		return false, err
	}
	par, err = c.api.FullPath(par)
	if err != nil {
		return false, err
	}

	// expansion and canonicalization may reintroduce upper case
	return hasComponentPrefix(strings.ToLower(p), strings.ToLower(par)), nil
}

// separatorFor picks the separator to append when normalizing a parent
// to end with exactly one trailing separator.
func separatorFor(s string) string {
	if strings.ContainsRune(s, '\\') {
		return `\`
	}
	return "/"
}

// isAbsolute recognizes rooted paths of either convention: a drive
// letter prefix, a UNC prefix, or a Unix root.
func isAbsolute(s string) bool {
	if len(s) >= 2 && s[1] == ':' && isDriveLetter(s[0]) {
		return true
	}
	if strings.HasPrefix(s, `\\`) {
		return true
	}
	return strings.HasPrefix(s, "/")
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// hasComponentPrefix reports whether parent's component sequence is a
// prefix of path's component sequence.
func hasComponentPrefix(path, parent string) bool {
	pc := splitComponents(path)
	pp := splitComponents(parent)
	if len(pp) > len(pc) {
		return false
	}
	for i := range pp {
		if pc[i] != pp[i] {
			return false
		}
	}
	return true
}

func splitComponents(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
