// Package pipe spawns child processes wired to their parent through a pair
// of anonymous duplex pipes. Anonymous pipes have no name a child could open,
// so the child-facing descriptors are placed in the child's file table and
// their numbers passed on the command line as --tx/--rx flags.
package pipe

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Process is the subset of child-process control the orchestrator needs.
type Process interface {
	Wait() error
	Kill() error
}

// Child owns one spawned process and the parent-side ends of its two pipes.
// Exactly one Child exists per running application id; the orchestrator's
// map is the single source of truth for that.
type Child struct {
	Proc Process
	TX   io.WriteCloser // parent → child
	RX   io.ReadCloser  // child → parent
}

// Close closes both parent-side pipe ends. It does not wait for the process.
func (c *Child) Close() error {
	txErr := c.TX.Close()
	rxErr := c.RX.Close()
	if txErr != nil {
		return txErr
	}
	return rxErr
}

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p *cmdProcess) Wait() error { return p.cmd.Wait() }
func (p *cmdProcess) Kill() error { return p.cmd.Process.Kill() }

// Spawn starts exe with the given args plus the two handle-passing flags.
// The child sees its write end as fd 3 and its read end as fd 4, and learns
// those numbers from --tx and --rx; that flag pair is the only way a freshly
// exec'd process can find its endpoints. On any failure every pipe created
// so far is closed and no Child is returned.
func Spawn(exe string, args ...string) (*Child, error) {
	toChildR, toChildW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create parent-to-child pipe: %w", err)
	}
	fromChildR, fromChildW, err := os.Pipe()
	if err != nil {
		toChildR.Close()
		toChildW.Close()
		return nil, fmt.Errorf("create child-to-parent pipe: %w", err)
	}

	cmd := exec.Command(exe, args...)
	cmd.Stderr = os.Stderr
	// ExtraFiles[0] lands on fd 3 in the child, ExtraFiles[1] on fd 4.
	cmd.ExtraFiles = []*os.File{fromChildW, toChildR}
	cmd.Args = append(cmd.Args, "--tx=3", "--rx=4")

	if err := cmd.Start(); err != nil {
		toChildR.Close()
		toChildW.Close()
		fromChildR.Close()
		fromChildW.Close()
		return nil, fmt.Errorf("spawn %s: %w", exe, err)
	}

	// The child inherited its own copies; keeping ours open would mask EOF.
	toChildR.Close()
	fromChildW.Close()

	return &Child{Proc: &cmdProcess{cmd: cmd}, TX: toChildW, RX: fromChildR}, nil
}
