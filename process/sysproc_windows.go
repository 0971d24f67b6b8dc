//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// createNoWindow keeps console children from opening a visible window.
const createNoWindow = 0x08000000

var procAllowSetForegroundWindow = windows.NewLazySystemDLL("user32.dll").NewProc("AllowSetForegroundWindow")

func sysProcAttr(cmd *exec.Cmd) *syscall.SysProcAttr {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	return cmd.SysProcAttr
}

// suppressConsole prevents the child from creating or attaching a
// visible console window.
func suppressConsole(cmd *exec.Cmd) {
	attr := sysProcAttr(cmd)
	attr.HideWindow = true
	attr.CreationFlags |= createNoWindow
}

// setRawCommandLine passes rawArgs to the child verbatim instead of the
// escaped argument list Go would otherwise build.
func setRawCommandLine(cmd *exec.Cmd, rawArgs string) {
	sysProcAttr(cmd).CmdLine = syscall.EscapeArg(cmd.Path) + " " + rawArgs
}

// allowSetForeground grants the child permission to bring itself to the
// foreground. Failure is ignored.
func allowSetForeground(pid int) {
	_, _, _ = procAllowSetForegroundWindow.Call(uintptr(pid))
}
