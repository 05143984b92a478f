//go:build !windows

package compile

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the command as leader of a new process group so
// that helper processes it spawns are killed with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
