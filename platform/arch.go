// Package platform detects the host CPU architecture and decides which
// package architectures may run on it.
package platform

import "strings"

// RuntimeArch is a CPU architecture as understood by the installer.
// ArchUnknown is a legitimate value, not an error: it means no
// recognizable architecture was declared or detected.
type RuntimeArch string

const (
	ArchUnknown RuntimeArch = ""
	ArchX86     RuntimeArch = "x86"
	ArchX64     RuntimeArch = "x64"
	ArchArm64   RuntimeArch = "arm64"
)

// ParseArch maps a package descriptor string onto a RuntimeArch.
// Unrecognized input yields ArchUnknown.
func ParseArch(s string) RuntimeArch {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86", "386", "i386", "i686", "win32":
		return ArchX86
	case "x64", "amd64", "x86_64", "win64":
		return ArchX64
	case "arm64", "aarch64":
		return ArchArm64
	default:
		return ArchUnknown
	}
}

// MinOSChecker reports whether the host satisfies a minimum OS release.
// *osver.Gate implements it.
type MinOSChecker interface {
	MeetsMinimum(version string) (bool, error)
}

// Supported decides whether a package built for pkg may run on a machine
// architecture. An unknown machine cannot be verified and an unknown
// package declared no constraint; both permit the install optimistically.
//
// arm64 machines run x64 packages only when the OS passes the "11" gate,
// which is when x64 emulation became available.
func Supported(machine, pkg RuntimeArch, minOS MinOSChecker) (bool, error) {
	if machine == ArchUnknown || pkg == ArchUnknown {
		return true, nil
	}
	switch machine {
	case ArchX86:
		// x86 machines only run x86
		return pkg == ArchX86, nil
	case ArchX64:
		// x64 machines run x86 and x64
		return pkg == ArchX86 || pkg == ArchX64, nil
	case ArchArm64:
		if pkg == ArchX86 || pkg == ArchArm64 {
			return true, nil
		}
		return minOS.MeetsMinimum("11")
	default:
		return true, nil
	}
}
