// Package process implements generic subprocess management functions.
package process

import (
	"fmt"
	"os/exec"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("process")

// An Executor handles starting, running and monitoring a set of subprocesses.
// It keeps track of everything it has started so stray processes can be killed.
type Executor struct {
	processes map[*exec.Cmd]struct{}
	mutex     sync.Mutex
}

// New returns a new Executor.
func New() *Executor {
	return &Executor{
		processes: map[*exec.Cmd]struct{}{},
	}
}

// ExecWithTimeout runs an external command with a timeout, capturing its
// combined stdout and stderr up to maxOutputSize bytes (zero means unlimited).
// If the command times out the process is killed and an error returned; any
// output captured up to that point is still returned.
func (e *Executor) ExecWithTimeout(timeout time.Duration, maxOutputSize uint64, argv []string) ([]byte, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	e.addProcess(cmd)
	defer e.removeProcess(cmd)

	out := newBoundedBuffer(maxOutputSize)
	cmd.Stdout = out
	cmd.Stderr = out
	// We deliberately don't use CommandContext; killing the process ourselves
	// gives us control over what we return alongside the partial output.
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	ch := make(chan error)
	go runCommand(cmd, ch)
	select {
	case err := <-ch:
		return out.Bytes(), err
	case <-time.After(timeout):
		e.KillProcess(cmd)
		return out.Bytes(), fmt.Errorf("Timeout exceeded running %s", argv[0])
	}
}

// runCommand runs a command and signals on the given channel when it's done.
func runCommand(cmd *exec.Cmd, ch chan error) {
	ch <- cmd.Wait()
}

// KillProcess kills a process, attempting to kill it gracefully first.
func (e *Executor) KillProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			log.Error("Failed to kill process %d: %s", cmd.Process.Pid, err)
		}
	}
}

// KillAll kills every subprocess that is still running.
func (e *Executor) KillAll() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	for cmd := range e.processes {
		e.KillProcess(cmd)
	}
}

func (e *Executor) addProcess(cmd *exec.Cmd) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.processes[cmd] = struct{}{}
}

func (e *Executor) removeProcess(cmd *exec.Cmd) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.processes, cmd)
}
