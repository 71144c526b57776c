package container

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/cgroups"
	"github.com/DeJeune/nsrun/runtime/pkg/system"
	"github.com/docker/docker/errdefs"
	"github.com/opencontainers/runtime-spec/specs-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	defaultStopSignal  = unix.SIGTERM
	defaultStopTimeout = 10 * time.Second
)

// Container 管理一个容器进程从创建到回收的完整生命周期
type Container struct {
	id            string
	config        config.Config
	cgroupManager cgroups.Manager

	// initPath 和 initArgs 决定子进程重新执行的程序，默认是当前二进制的 init 子命令
	initPath string
	initArgs []string
	stdin    *os.File
	stdout   *os.File
	stderr   *os.File

	stopSignal  syscall.Signal
	stopTimeout time.Duration
	logLevel    string
	logFormat   string

	spawn spawnFunc

	m            sync.Mutex
	status       Status
	process      parentProcess
	startTime    uint64
	created      time.Time
	cgroupActive bool

	teardownOnce sync.Once
	teardownErr  error

	waitOnce sync.Once
	exited   chan struct{}
	outcome  ProcessOutcome
	waitErr  error
}

type Option func(*Container)

// WithStdio sets the files handed to the container program. Unset streams
// are inherited from the current process.
func WithStdio(stdin, stdout, stderr *os.File) Option {
	return func(c *Container) {
		c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
	}
}

func WithStopSignal(sig syscall.Signal) Option {
	return func(c *Container) {
		if sig != 0 {
			c.stopSignal = sig
		}
	}
}

func WithStopTimeout(d time.Duration) Option {
	return func(c *Container) {
		if d >= 0 {
			c.stopTimeout = d
		}
	}
}

// WithLogging forwards the logrus level and format to the init process.
func WithLogging(level, format string) Option {
	return func(c *Container) {
		c.logLevel, c.logFormat = level, format
	}
}

// WithInitPath replaces the binary re-executed as the container's init.
func WithInitPath(path string, args ...string) Option {
	return func(c *Container) {
		c.initPath = path
		c.initArgs = args
	}
}

// New validates cfg and returns a container in the Created state. The
// container keeps its own copy of cfg.
func New(cfg config.Config, manager cgroups.Manager, opts ...Option) (*Container, error) {
	if manager == nil {
		return nil, errdefs.InvalidParameter(errors.New("no cgroup manager given"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	rootfs, err := filepath.Abs(cfg.Rootfs)
	if err != nil {
		return nil, errdefs.InvalidParameter(errors.Wrapf(err, "resolve rootfs %s", cfg.Rootfs))
	}
	cfg.Rootfs = rootfs

	c := &Container{
		id:            cfg.Hostname,
		config:        cfg,
		cgroupManager: manager,
		initPath:      "/proc/self/exe",
		initArgs:      []string{"init"},
		stopSignal:    defaultStopSignal,
		stopTimeout:   defaultStopTimeout,
		logLevel:      logrus.GetLevel().String(),
		spawn:         startInit,
		status:        Created,
		exited:        make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Container) ID() string {
	return c.id
}

// Config returns a copy of the container configuration.
func (c *Container) Config() config.Config {
	return c.config.Clone()
}

// Pid returns the pid of the container process in the caller's pid
// namespace, or 0 when nothing has been spawned.
func (c *Container) Pid() int {
	c.m.Lock()
	defer c.m.Unlock()
	if c.process == nil {
		return 0
	}
	return c.process.pid()
}

func (c *Container) Status() Status {
	c.m.Lock()
	defer c.m.Unlock()
	return c.status
}

// State returns an OCI state snapshot of the container.
func (c *Container) State() specs.State {
	c.m.Lock()
	defer c.m.Unlock()
	st := specs.State{
		Version: specs.Version,
		ID:      c.id,
		Status:  c.status.OCI(),
		Bundle:  c.config.Rootfs,
		Annotations: map[string]string{
			"nsrun.status": c.status.String(),
		},
	}
	if c.process != nil && c.status <= ChildRunning {
		st.Pid = c.process.pid()
	}
	if c.cgroupActive {
		st.Annotations["nsrun.cgroup"] = c.cgroupManager.Path()
	}
	if !c.created.IsZero() {
		st.Annotations["nsrun.created"] = c.created.UTC().Format(time.RFC3339Nano)
	}
	return st
}

// Signal sends sig to the container process. It fails once the process is
// gone, so a recycled pid is never signalled.
func (c *Container) Signal(sig os.Signal) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.process == nil {
		return errdefs.Conflict(errors.New("container has not been started"))
	}
	if c.status > ChildRunning {
		return errdefs.Conflict(errors.Errorf("container %s is not running", c.id))
	}
	if c.startTime != 0 && !system.Alive(c.process.pid(), c.startTime) {
		return errdefs.Conflict(errors.Errorf("container %s is not running", c.id))
	}
	if err := c.process.signal(sig); err != nil {
		return errors.Wrapf(err, "signal %v to pid %d", sig, c.process.pid())
	}
	return nil
}

// setStatus must be called with c.m held.
func (c *Container) setStatus(to Status) {
	if !c.status.canTransition(to) {
		logrus.WithField("container", c.id).Warnf("unexpected status transition %s -> %s", c.status, to)
	}
	logrus.WithField("container", c.id).Debugf("status %s -> %s", c.status, to)
	c.status = to
}

func (c *Container) transition(to Status) {
	c.m.Lock()
	c.setStatus(to)
	c.m.Unlock()
}
