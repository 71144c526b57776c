package container

import (
	"context"
	"time"

	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"github.com/DeJeune/nsrun/runtime/pkg/system"
	"github.com/docker/docker/errdefs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Start launches the container and returns the pid of its init process once
// that process is a member of the container cgroup and has been released.
// A cgroup that cannot be set up is logged and the container runs without
// limits.
func (c *Container) Start(detached bool) (int, error) {
	return c.start(detached, false)
}

// Run starts the container attached, waits for it and tears it down. Unlike
// Start, a cgroup setup failure is fatal.
func (c *Container) Run(ctx context.Context) (ProcessOutcome, error) {
	if _, err := c.start(false, true); err != nil {
		if failure.Is(err, failure.SpawnFailed) {
			return spawnFailed(err), err
		}
		return ProcessOutcome{Kind: UnknownOutcome}, err
	}
	return c.Wait(ctx)
}

func (c *Container) start(detached, strictSetup bool) (int, error) {
	log := logrus.WithField("container", c.id)

	c.m.Lock()
	if c.status != Created {
		c.m.Unlock()
		return 0, errdefs.Conflict(errors.Errorf("container %s has already been started", c.id))
	}
	c.created = time.Now()
	if err := c.cgroupManager.Setup(); err != nil {
		if strictSetup {
			c.setStatus(Failed)
			c.m.Unlock()
			return 0, err
		}
		log.WithError(err).Warn("cgroup setup failed, running without resource limits")
	} else {
		c.cgroupActive = true
	}
	c.setStatus(SpawningChild)
	c.m.Unlock()

	parent, child, err := newSyncSockpair("init")
	if err != nil {
		return 0, c.abort(failure.New(failure.ChannelError, "create sync socket", err))
	}
	p, err := c.spawn(c, child.File(), detached)
	// 子进程已经持有自己的副本
	_ = child.Close()
	if err != nil {
		_ = parent.Close()
		return 0, c.abort(failure.New(failure.SpawnFailed, "spawn init", err))
	}
	defer parent.Close()

	pid := p.pid()
	c.m.Lock()
	c.process = p
	if st, err := system.Stat(pid); err == nil {
		c.startTime = st.StartTime
	}
	c.setStatus(AwaitingBarrierRelease)
	active := c.cgroupActive
	c.m.Unlock()
	log.WithField("pid", pid).Debug("init process spawned")

	if active {
		if err := c.cgroupManager.Apply(pid); err != nil {
			return 0, c.kill(p, err)
		}
	}
	if err := writeSync(parent, procRun); err != nil {
		return 0, c.kill(p, failure.New(failure.ChannelError, "release init", err))
	}

	c.transition(ChildRunning)
	log.WithFields(logrus.Fields{"pid": pid, "detached": detached}).Info("container started")
	return pid, nil
}

// abort marks the container failed and removes its cgroup. cause is returned
// unchanged; a teardown error is only logged.
func (c *Container) abort(cause error) error {
	c.transition(Failed)
	if err := c.teardown(); err != nil {
		logrus.WithField("container", c.id).WithError(err).Warn("cgroup teardown after failed start")
	}
	return cause
}

// kill stops an init process that must never be released, reaps it and
// aborts the start. Later Wait calls report cause, since the program never
// ran.
func (c *Container) kill(p parentProcess, cause error) error {
	if err := p.signal(unix.SIGKILL); err != nil {
		logrus.WithField("container", c.id).WithError(err).Debug("kill init process")
	}
	c.waitOnce.Do(func() { c.reap(p) })
	c.m.Lock()
	c.outcome, c.waitErr = ProcessOutcome{Kind: UnknownOutcome}, cause
	c.m.Unlock()
	return c.abort(cause)
}
