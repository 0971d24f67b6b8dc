package hostapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPercentVars(t *testing.T) {
	lookup := func(name string) (string, bool) {
		switch name {
		case "windir", "WINDIR":
			return `C:\Windows`, true
		case "name":
			return "velopack", true
		}
		return "", false
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no refs", `c:\plain\path`, `c:\plain\path`},
		{"single ref", `%windir%\system32`, `C:\Windows\system32`},
		{"ref only", `%windir%`, `C:\Windows`},
		{"two refs", `%windir%\%name%`, `C:\Windows\velopack`},
		{"undefined kept verbatim", `%nope%\bin`, `%nope%\bin`},
		{"lone percent", `100% done`, `100% done`},
		{"empty", ``, ``},
		{"undefined then defined", `%nope%-%name%`, `%nope%-velopack`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPercentVars(tt.input, lookup))
		})
	}
}

func TestFakeVersionComparison(t *testing.T) {
	f := &Fake{Major: 10, Minor: 0, Build: 19045}

	tests := []struct {
		major, minor, build uint64
		want                bool
	}{
		{10, 0, 19045, true},
		{10, 0, 19044, true},
		{10, 0, 22000, false},
		{6, 3, 0, true},
		{11, 0, 0, false},
		// hierarchical, not field-wise: larger major wins outright
		{9, 9, 99999, true},
	}
	for _, tt := range tests {
		got, err := f.IsVersionAtLeast(tt.major, tt.minor, tt.build)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at least %d.%d.%d", tt.major, tt.minor, tt.build)
	}
}

func TestFakeVersionError(t *testing.T) {
	wantErr := &OSError{Context: "version query", Code: 5}
	f := &Fake{VersionErr: wantErr}

	_, err := f.IsWindows10OrGreater()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOSAPI))
}

func TestFakeRecordsCalls(t *testing.T) {
	f := &Fake{Major: 10}
	_, _ = f.IsWindows7OrGreater()
	_, _ = f.IsWindows8Point1OrGreater()
	_, _ = f.IsVersionAtLeast(10, 0, 22000)
	assert.Equal(t, []string{"IsWindows7OrGreater", "IsWindows8Point1OrGreater", "IsVersionAtLeast"}, f.Calls)
}

func TestFakeExpandEnvIsCaseInsensitive(t *testing.T) {
	f := &Fake{Env: map[string]string{"WinDir": `C:\Windows`}}

	got, err := f.ExpandEnv(`%windir%\system32`)
	require.NoError(t, err)
	assert.Equal(t, `C:\Windows\system32`, got)
}

func TestFakeFullPath(t *testing.T) {
	f := &Fake{}

	tests := []struct {
		input string
		want  string
	}{
		{`c:\windows\system32\..\system32`, "c:/windows/system32"},
		{`c:\windows\.\system32\`, "c:/windows/system32"},
		{`c:/already/clean`, "c:/already/clean"},
		{`/unix/style/../root`, "/unix/root"},
	}
	for _, tt := range tests {
		got, err := f.FullPath(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFakeMutex(t *testing.T) {
	f := &Fake{}

	h, err := f.CreateMutex("velopack-demo")
	require.NoError(t, err)
	assert.True(t, f.Held("velopack-demo"))

	_, err = f.CreateMutex("velopack-demo")
	assert.ErrorIs(t, err, ErrMutexExists)

	// different name is independent
	h2, err := f.CreateMutex("velopack-other")
	require.NoError(t, err)
	require.NoError(t, h2.Close())

	require.NoError(t, h.Close())
	assert.False(t, f.Held("velopack-demo"))

	// closing twice is harmless
	require.NoError(t, h.Close())

	h3, err := f.CreateMutex("velopack-demo")
	require.NoError(t, err)
	require.NoError(t, h3.Close())
}
