package cgroups

import (
	"os"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type Manager interface {
	// Setup creates the cgroup directory and writes the configured limits
	// into it. It fails if the directory already exists.
	Setup() error

	// Apply moves the process with the given pid into the cgroup.
	Apply(pid int) error

	// Teardown removes the cgroup. It only succeeds once every member
	// process has exited.
	Teardown() error

	// GetPids returns the PIDs of all processes inside the cgroup.
	GetPids() ([]int, error)

	// Exists returns whether the cgroup path exists or not.
	Exists() bool

	// Path returns the absolute cgroup directory.
	Path() string
}

type manager struct {
	root    string
	config  *config.Cgroup
	dirPath string
}

// NewManager returns a manager for the cgroup c.Name under root. Nothing is
// created until Setup is called.
func NewManager(root string, c *config.Cgroup) (Manager, error) {
	if c == nil {
		return nil, errdefs.InvalidParameter(errors.New("cgroup: no config given"))
	}
	dirPath, err := containerPath(root, c.Name)
	if err != nil {
		return nil, errdefs.InvalidParameter(err)
	}
	if c.Resources == nil {
		c.Resources = &config.Resources{}
	}
	return &manager{
		root:    root,
		config:  c,
		dirPath: dirPath,
	}, nil
}

func (m *manager) Path() string {
	return m.dirPath
}

func (m *manager) Exists() bool {
	_, err := os.Stat(m.dirPath)
	return err == nil
}

func (m *manager) Setup() error {
	log := logrus.WithField("cgroup", m.dirPath)
	if !TestMode && m.root == UnifiedMountpoint && !IsCgroup2UnifiedMode() {
		log.Warn("cgroup v2 unified hierarchy not detected, limits may not apply")
	}
	m.enableControllers()

	if err := os.Mkdir(m.dirPath, 0o755); err != nil {
		ferr := failure.NewPath(failure.DirectoryCreateError, "mkdir", m.dirPath, unwrapPathError(err))
		if os.IsExist(err) {
			return errdefs.Conflict(ferr)
		}
		return ferr
	}
	if err := m.setLimits(); err != nil {
		// A half configured cgroup must not be left behind for the next Setup.
		if rerr := removePath(m.dirPath); rerr != nil {
			log.WithError(rerr).Warn("unable to remove cgroup after failed setup")
		}
		return err
	}
	log.WithFields(logrus.Fields{
		"memory": memoryString(m.config.Memory),
		"pids":   m.config.PidsLimit,
	}).Debug("setup of cgroup completed")
	return nil
}

func (m *manager) setLimits() error {
	if err := setMemory(m.dirPath, m.config.Resources); err != nil {
		return failure.NewPath(failure.LimitWriteError, "set memory.max", m.dirPath, err)
	}
	if err := setPids(m.dirPath, m.config.Resources); err != nil {
		return failure.NewPath(failure.LimitWriteError, "set pids.max", m.dirPath, err)
	}
	return nil
}

func (m *manager) Apply(pid int) error {
	if err := WriteCgroupProc(m.dirPath, pid); err != nil {
		return failure.NewPath(failure.MembershipWriteError, "write "+CgroupProcesses, m.dirPath, err)
	}
	logrus.WithFields(logrus.Fields{"cgroup": m.dirPath, "pid": pid}).Debug("process added to cgroup")
	return nil
}

func (m *manager) Teardown() error {
	if err := removePath(m.dirPath); err != nil {
		if errors.Is(err, unix.EBUSY) {
			if pids, perr := m.GetPids(); perr == nil && len(pids) > 0 {
				err = errors.Wrapf(err, "still in use by %v", pids)
			}
		}
		return failure.NewPath(failure.DirectoryRemoveError, "rmdir", m.dirPath, err)
	}
	logrus.WithField("cgroup", m.dirPath).Debug("cgroup removed")
	return nil
}

func (m *manager) GetPids() ([]int, error) {
	return readPids(m.dirPath)
}

func memoryString(bytes int64) string {
	if bytes == 0 {
		return "max"
	}
	return units.BytesSize(float64(bytes))
}

func unwrapPathError(err error) error {
	var perr *os.PathError
	if errors.As(err, &perr) {
		return perr.Err
	}
	return err
}
