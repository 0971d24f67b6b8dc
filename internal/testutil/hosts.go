// Package testutil provides shared fixtures for testing the installer
// library against fabricated hosts instead of the real OS.
package testutil

import "github.com/remco1271/velopack/hostapi"

// windowsEnv is the environment visible to fake hosts; keys resolve
// case-insensitively like the real Windows environment.
func windowsEnv() map[string]string {
	return map[string]string{
		"windir":       `C:\Windows`,
		"ProgramData":  `C:\ProgramData`,
		"LocalAppData": `C:\Users\dev\AppData\Local`,
	}
}

// Windows7Host fakes a Windows 7 SP1 machine.
func Windows7Host() *hostapi.Fake {
	return &hostapi.Fake{Major: 6, Minor: 1, Build: 7601, Env: windowsEnv()}
}

// Windows81Host fakes a Windows 8.1 machine.
func Windows81Host() *hostapi.Fake {
	return &hostapi.Fake{Major: 6, Minor: 3, Build: 9600, Env: windowsEnv()}
}

// Windows10Host fakes a late Windows 10 machine (build below the
// Windows 11 threshold).
func Windows10Host() *hostapi.Fake {
	return &hostapi.Fake{Major: 10, Minor: 0, Build: 19045, Env: windowsEnv()}
}

// Windows11Host fakes a Windows 11 machine (10.0 at build 22631).
func Windows11Host() *hostapi.Fake {
	return &hostapi.Fake{Major: 10, Minor: 0, Build: 22631, Env: windowsEnv()}
}
