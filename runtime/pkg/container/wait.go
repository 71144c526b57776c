package container

import (
	"context"
	"time"

	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"github.com/docker/docker/errdefs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	teardownRetries = 5
	teardownDelay   = 10 * time.Millisecond
)

// Wait blocks until the container process exits, removes the cgroup and
// returns the outcome. When ctx is done first the stop signal is sent, and
// SIGKILL follows after the stop timeout. Wait may be called more than once;
// every call returns the same outcome.
func (c *Container) Wait(ctx context.Context) (ProcessOutcome, error) {
	c.m.Lock()
	p := c.process
	c.m.Unlock()
	if p == nil {
		return ProcessOutcome{}, errdefs.Conflict(errors.Errorf("container %s has not been started", c.id))
	}

	c.waitOnce.Do(func() { go c.reap(p) })
	select {
	case <-c.exited:
	case <-ctx.Done():
		c.stop(p, ctx.Err())
		<-c.exited
	}

	terr := c.teardown()

	c.m.Lock()
	outcome, err := c.outcome, c.waitErr
	c.m.Unlock()
	if err == nil {
		err = terr
	} else if terr != nil {
		logrus.WithField("container", c.id).WithError(terr).Warn("cgroup teardown failed")
	}
	return outcome, err
}

// reap waits for p and records the outcome. It runs at most once.
func (c *Container) reap(p parentProcess) {
	ws, err := p.wait()
	outcome, werr := outcomeFromStatus(ws)
	if err != nil {
		outcome, werr = ProcessOutcome{Kind: UnknownOutcome}, failure.New(failure.WaitError, "wait", err)
	}

	c.m.Lock()
	c.outcome, c.waitErr = outcome, werr
	if c.status == ChildRunning {
		if werr != nil {
			c.setStatus(Failed)
		} else {
			c.setStatus(Reaped)
		}
	}
	c.m.Unlock()

	logrus.WithFields(logrus.Fields{"container": c.id, "pid": p.pid()}).Debugf("init process %s", outcome)
	close(c.exited)
}

func (c *Container) stop(p parentProcess, reason error) {
	log := logrus.WithField("container", c.id)
	log.Infof("%v, stopping container with %v", reason, c.stopSignal)
	if err := p.signal(c.stopSignal); err != nil {
		log.WithError(err).Debug("send stop signal")
	}

	timer := time.NewTimer(c.stopTimeout)
	defer timer.Stop()
	select {
	case <-c.exited:
	case <-timer.C:
		log.Warnf("container did not exit within %s, killing it", c.stopTimeout)
		if err := p.signal(unix.SIGKILL); err != nil {
			log.WithError(err).Debug("send SIGKILL")
		}
	}
}

// teardown removes the cgroup exactly once. Processes left in the pid
// namespace are killed by the kernel when init dies but may still be
// exiting, so EBUSY is retried for a short while.
func (c *Container) teardown() error {
	c.teardownOnce.Do(func() {
		c.m.Lock()
		active := c.cgroupActive
		c.m.Unlock()

		var err error
		if active {
			delay := teardownDelay
			for i := 0; ; i++ {
				err = c.cgroupManager.Teardown()
				if err == nil || !errors.Is(err, unix.EBUSY) || i == teardownRetries-1 {
					break
				}
				time.Sleep(delay)
				delay *= 2
			}
		}

		c.m.Lock()
		defer c.m.Unlock()
		c.teardownErr = err
		if err == nil {
			c.cgroupActive = false
		}
		if c.status == Reaped {
			if err != nil {
				c.setStatus(Failed)
			} else {
				c.setStatus(TornDown)
			}
		}
	})
	return c.teardownErr
}
