//go:build !windows

package process

import "os/exec"

// suppressConsole is a no-op: only Windows children open console windows.
func suppressConsole(cmd *exec.Cmd) {}

// setRawCommandLine approximates a raw command line off Windows by
// passing the string as the child's single argument; no unescaped
// command line concept exists here.
func setRawCommandLine(cmd *exec.Cmd, rawArgs string) {
	cmd.Args = append(cmd.Args[:1], rawArgs)
}

// allowSetForeground is a no-op off Windows.
func allowSetForeground(pid int) {}
