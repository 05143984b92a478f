//go:build !windows

package process

import "syscall"

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID). The process must have been started
// with Setpgid.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: the caller still waits on or kills the leader itself.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
