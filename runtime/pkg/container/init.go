package container

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/capabilities"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Init is the entry point of the init process started by Start. It is
// already inside the new namespaces, prepares the container environment and
// replaces itself with the configured program. Init only returns through
// os.Exit, with one of the reserved exit codes on failure.
func Init() {
	// namespaces and the chroot are per thread until exec
	runtime.LockOSThread()
	os.Exit(initMain())
}

func initMain() int {
	ic, err := loadInitConfig()
	if err != nil {
		return initFailed(newInitError(StepConfig, err))
	}
	configureLogging(ic.LogLevel, ic.LogFormat)

	l := &linuxInit{
		config:   ic.Config,
		detached: ic.Detached,
	}
	if err := l.waitForParent(); err != nil {
		return initFailed(err)
	}
	// exec only returns on failure
	return initFailed(l.Init())
}

func loadInitConfig() (*initConfig, error) {
	payload := os.Getenv(envInitConfig)
	if payload == "" {
		return nil, errors.Errorf("%s is not set", envInitConfig)
	}
	var ic initConfig
	if err := json.Unmarshal([]byte(payload), &ic); err != nil {
		return nil, errors.Wrap(err, "decode init config")
	}
	return &ic, nil
}

func configureLogging(level, format string) {
	logrus.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(lvl)
	}
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func initFailed(err error) int {
	var ie *initError
	if !errors.As(err, &ie) {
		ie = &initError{Step: StepExec, Err: err}
	}
	logrus.WithFields(logrus.Fields{
		"step": ie.Step.String(),
		"kind": ie.Step.Kind().String(),
	}).Error(ie.Err)
	return ie.Step.ExitCode()
}

type linuxInit struct {
	config   config.Config
	detached bool

	devNull *os.File
	devices []hostDev
}

// waitForParent blocks until the parent has put this process into its
// cgroup. Nothing else may happen before.
func (l *linuxInit) waitForParent() error {
	fd, err := strconv.Atoi(os.Getenv(envSyncPipe))
	if err != nil {
		return newInitError(StepBarrier, errors.Wrapf(err, "invalid %s", envSyncPipe))
	}
	pipe := newSyncSocket(os.NewFile(uintptr(fd), "sync"))
	defer pipe.Close()
	unix.CloseOnExec(fd)

	if err := readSync(pipe, procRun); err != nil {
		return newInitError(StepBarrier, err)
	}
	_ = os.Unsetenv(envInitConfig)
	_ = os.Unsetenv(envSyncPipe)
	return nil
}

// Init runs the setup steps in order and execs the container program. It
// only returns on failure.
func (l *linuxInit) Init() error {
	cfg := &l.config
	if err := unix.Sethostname([]byte(cfg.Hostname)); err != nil {
		return newInitError(StepHostname, os.NewSyscallError("sethostname", err))
	}
	if err := setupLoopback(); err != nil {
		logrus.WithError(err).Warn("loopback unavailable")
	}

	// host files needed after the root has changed
	if l.detached {
		f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
		if err != nil {
			logrus.WithError(err).Warn("unable to open /dev/null")
		} else {
			l.devNull = f
		}
	}
	l.devices = openHostDevices()
	defer closeHostDevices(l.devices)

	if err := chrootTo(cfg.Rootfs); err != nil {
		return newInitError(StepRootfs, err)
	}
	if err := unix.Chdir("/"); err != nil {
		return newInitError(StepChdir, os.NewSyscallError("chdir", err))
	}

	mounts := cfg.Mounts
	if len(mounts) == 0 {
		mounts = config.DefaultMounts()
	}
	var devMounted bool
	for _, m := range mounts {
		if err := mountToRootfs(m); err != nil {
			return newInitError(stepForMount(m.Destination), err)
		}
		if m.Destination == "/dev" && m.Device == "tmpfs" {
			devMounted = true
		}
	}
	if devMounted {
		setupDev(l.devices)
	}

	caps, err := capabilities.New(cfg.Capabilities)
	if err != nil {
		return newInitError(StepCapabilities, err)
	}
	if err := caps.ApplyBoundingSet(); err != nil {
		return newInitError(StepCapabilities, errors.Wrap(err, "apply bounding set"))
	}

	if l.detached {
		if stderr, err := redirectStdio(l.devNull); err != nil {
			logrus.WithError(err).Warn("unable to redirect stdio to /dev/null")
		} else {
			// exec failures still need somewhere to go
			logrus.SetOutput(stderr)
		}
	}
	return l.exec()
}

func (l *linuxInit) exec() error {
	cfg := &l.config
	env := cfg.ProcessEnv()
	name := cfg.Command
	if !strings.Contains(name, "/") {
		// LookPath resolves against our own PATH
		_ = os.Setenv("PATH", lookupEnv(env, "PATH"))
		path, err := exec.LookPath(name)
		if err != nil {
			return newInitError(StepExec, err)
		}
		name = path
	}
	argv := append([]string{cfg.Command}, cfg.Args...)
	logrus.Debugf("exec %s %v", name, argv)
	if err := unix.Exec(name, argv, env); err != nil {
		return newInitError(StepExec, fmt.Errorf("exec %s: %w", name, err))
	}
	return nil
}

func lookupEnv(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], key+"="); ok {
			return v
		}
	}
	return ""
}
