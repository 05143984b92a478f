//go:build windows

package compile

import "os/exec"

// setProcessGroup is a no-op: taskkill /T already walks the process tree.
func setProcessGroup(cmd *exec.Cmd) {}
