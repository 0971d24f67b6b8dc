//go:build windows

package hostapi

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procCreateMutexW             = modkernel32.NewProc("CreateMutexW")
	procExpandEnvironmentStrings = modkernel32.NewProc("ExpandEnvironmentStringsW")
	procGetFullPathNameW         = modkernel32.NewProc("GetFullPathNameW")
	procVerifyVersionInfoW       = modkernel32.NewProc("VerifyVersionInfoW")
)

const (
	verMinorVersion = 0x0000001
	verMajorVersion = 0x0000002
	verBuildNumber  = 0x0000004

	verGreaterEqual = 3

	errorOldWinVersion = syscall.Errno(1150) // ERROR_OLD_WIN_VERSION
)

type osVersionInfoEx struct {
	osVersionInfoSize uint32
	majorVersion      uint32
	minorVersion      uint32
	buildNumber       uint32
	platformID        uint32
	csdVersion        [128]uint16
	servicePackMajor  uint16
	servicePackMinor  uint16
	suiteMask         uint16
	productType       byte
	reserved          byte
}

type windowsServices struct{}

// Native returns the platform services backed by the Windows API.
func Native() Services {
	return windowsServices{}
}

func (windowsServices) IsWindows7OrGreater() (bool, error) {
	return verifyVersionAtLeast(6, 1, 0)
}

func (windowsServices) IsWindows8OrGreater() (bool, error) {
	return verifyVersionAtLeast(6, 2, 0)
}

func (windowsServices) IsWindows8Point1OrGreater() (bool, error) {
	return verifyVersionAtLeast(6, 3, 0)
}

func (windowsServices) IsWindows10OrGreater() (bool, error) {
	return verifyVersionAtLeast(10, 0, 0)
}

func (windowsServices) IsVersionAtLeast(major, minor, build uint64) (bool, error) {
	return verifyVersionAtLeast(uint32(major), uint32(minor), uint32(build))
}

// verifyVersionAtLeast asks the OS whether its version is >= the given
// triple using VerifyVersionInfoW with a greater-than-or-equal condition
// on major, minor, and build.
func verifyVersionAtLeast(major, minor, build uint32) (bool, error) {
	typeMask := uint32(verMajorVersion | verMinorVersion | verBuildNumber)

	var condMask uint64
	condMask = setConditionMask(condMask, verMajorVersion, verGreaterEqual)
	condMask = setConditionMask(condMask, verMinorVersion, verGreaterEqual)
	condMask = setConditionMask(condMask, verBuildNumber, verGreaterEqual)

	osvi := osVersionInfoEx{
		majorVersion: major,
		minorVersion: minor,
		buildNumber:  build,
	}
	osvi.osVersionInfoSize = uint32(unsafe.Sizeof(osvi))

	r1, _, lastErr := procVerifyVersionInfoW.Call(
		uintptr(unsafe.Pointer(&osvi)),
		uintptr(typeMask),
		uintptr(condMask),
	)
	if r1 != 0 {
		return true, nil
	}
	if errno, ok := lastErr.(syscall.Errno); ok && errno == errorOldWinVersion {
		return false, nil
	}
	return false, &OSError{Context: "VerifyVersionInfoW", Code: errnoCode(lastErr), Err: lastErr}
}

// setConditionMask mirrors the VER_SET_CONDITION macro: each type bit
// owns a 3-bit slot in the 64-bit condition mask.
func setConditionMask(mask uint64, typeBit uint32, condition uint8) uint64 {
	for i := uint(0); i < 32; i++ {
		if typeBit&(1<<i) != 0 {
			mask |= uint64(condition) << (i * 3)
		}
	}
	return mask
}

func (windowsServices) ExpandEnv(s string) (string, error) {
	src, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return "", &OSError{Context: "ExpandEnvironmentStringsW", Err: err}
	}
	// first call sizes the buffer, second fills it
	n, _, lastErr := procExpandEnvironmentStrings.Call(uintptr(unsafe.Pointer(src)), 0, 0)
	if n == 0 {
		return "", &OSError{Context: "ExpandEnvironmentStringsW", Code: errnoCode(lastErr), Err: lastErr}
	}
	buf := make([]uint16, n)
	n, _, lastErr = procExpandEnvironmentStrings.Call(
		uintptr(unsafe.Pointer(src)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if n == 0 || int(n) > len(buf) {
		return "", &OSError{Context: "ExpandEnvironmentStringsW", Code: errnoCode(lastErr), Err: lastErr}
	}
	return windows.UTF16ToString(buf[:n]), nil
}

func (windowsServices) FullPath(s string) (string, error) {
	src, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return "", &OSError{Context: "GetFullPathNameW", Err: err}
	}
	buf := make([]uint16, 260)
	for {
		n, _, lastErr := procGetFullPathNameW.Call(
			uintptr(unsafe.Pointer(src)),
			uintptr(len(buf)),
			uintptr(unsafe.Pointer(&buf[0])),
			0,
		)
		if n == 0 {
			return "", &OSError{Context: "GetFullPathNameW", Code: errnoCode(lastErr), Err: lastErr}
		}
		if int(n) < len(buf) {
			return windows.UTF16ToString(buf[:n]), nil
		}
		buf = make([]uint16, n)
	}
}

type windowsMutexHandle struct {
	h windows.Handle
}

func (m *windowsMutexHandle) Close() error {
	if err := windows.CloseHandle(m.h); err != nil {
		return &OSError{Context: "CloseHandle", Err: err}
	}
	return nil
}

func (windowsServices) CreateMutex(name string) (MutexHandle, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, &OSError{Context: "CreateMutexW", Err: err}
	}
	// CreateMutexW can succeed while another process already owns the
	// object; the already-existed signal only shows up in GetLastError,
	// so the raw call is used here instead of the x/sys wrapper.
	r1, _, lastErr := procCreateMutexW.Call(0, 1, uintptr(unsafe.Pointer(namep)))
	handle := windows.Handle(r1)
	if handle == 0 {
		return nil, &OSError{Context: "CreateMutexW", Code: errnoCode(lastErr), Err: lastErr}
	}
	if errno, ok := lastErr.(syscall.Errno); ok && errno == windows.ERROR_ALREADY_EXISTS {
		_ = windows.CloseHandle(handle)
		return nil, ErrMutexExists
	}
	return &windowsMutexHandle{h: handle}, nil
}

func errnoCode(err error) uint64 {
	if errno, ok := err.(syscall.Errno); ok {
		return uint64(errno)
	}
	return 0
}
