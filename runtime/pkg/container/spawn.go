package container

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/userns"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	// envInitConfig carries the JSON encoded initConfig into the init process.
	envInitConfig = "_NSRUN_INITCONFIG"
	// envSyncPipe carries the fd number of the child end of the sync socket.
	envSyncPipe = "_NSRUN_SYNCPIPE"

	cloneFlags = unix.CLONE_NEWPID |
		unix.CLONE_NEWNS |
		unix.CLONE_NEWUTS |
		unix.CLONE_NEWIPC |
		unix.CLONE_NEWNET |
		unix.CLONE_NEWUSER
)

// initConfig 是父进程传递给 init 进程的全部信息
type initConfig struct {
	Config    config.Config `json:"config"`
	Detached  bool          `json:"detached"`
	LogLevel  string        `json:"log_level,omitempty"`
	LogFormat string        `json:"log_format,omitempty"`
}

// parentProcess is the parent's handle on a spawned init process.
type parentProcess interface {
	pid() int
	signal(os.Signal) error
	// wait blocks until the process exits and reaps it.
	wait() (syscall.WaitStatus, error)
}

// spawnFunc starts the init process with child as its sync socket.
type spawnFunc func(c *Container, child *os.File, detached bool) (parentProcess, error)

type initProcess struct {
	cmd *exec.Cmd
}

func (p *initProcess) pid() int {
	return p.cmd.Process.Pid
}

func (p *initProcess) signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *initProcess) wait() (syscall.WaitStatus, error) {
	err := p.cmd.Wait()
	if p.cmd.ProcessState == nil {
		return 0, err
	}
	ws, ok := p.cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, errors.Errorf("unexpected process state %T", p.cmd.ProcessState.Sys())
	}
	// A non zero exit is an outcome, not a wait failure.
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return ws, err
	}
	return ws, nil
}

// startInit re-executes the current binary inside fresh namespaces. The
// returned process is blocked on the sync socket until the parent releases
// it.
func startInit(c *Container, child *os.File, detached bool) (parentProcess, error) {
	payload, err := c.initPayload(detached)
	if err != nil {
		return nil, err
	}
	uids, gids := userns.FromConfig(&c.config).ToSys()

	cmd := exec.Command(c.initPath, c.initArgs...)
	cmd.Args[0] = os.Args[0]
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.stdio()
	cmd.ExtraFiles = []*os.File{child}
	cmd.Env = append(os.Environ(),
		envInitConfig+"="+payload,
		// ExtraFiles start right after stdio.
		envSyncPipe+"="+strconv.Itoa(3+len(cmd.ExtraFiles)-1),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags:                 cloneFlags,
		UidMappings:                uids,
		GidMappings:                gids,
		GidMappingsEnableSetgroups: userns.EnableSetgroups(),
	}
	if detached {
		cmd.SysProcAttr.Setsid = true
	} else {
		cmd.SysProcAttr.Pdeathsig = unix.SIGKILL
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("clone %s: %w", c.initPath, err)
	}
	return &initProcess{cmd: cmd}, nil
}

func (c *Container) initPayload(detached bool) (string, error) {
	ic := initConfig{
		Config:    c.config,
		Detached:  detached,
		LogLevel:  c.logLevel,
		LogFormat: c.logFormat,
	}
	data, err := json.Marshal(ic)
	if err != nil {
		return "", errors.Wrap(err, "encode init config")
	}
	return string(data), nil
}

func (c *Container) stdio() (stdin, stdout, stderr *os.File) {
	stdin, stdout, stderr = c.stdin, c.stdout, c.stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return
}
