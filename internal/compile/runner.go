package compile

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-texgen/internal/process"
)

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = 5 * time.Second

// ExecRunner implements CommandRunner using os/exec. The child runs in its
// own process group, which is killed as a whole when ctx is canceled.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return stdout.String(), stderr.String(), ctxErr
	}
	return stdout.String(), stderr.String(), err
}
