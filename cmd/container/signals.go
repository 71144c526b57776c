package container

import (
	"context"
	"os"
	"syscall"

	"github.com/DeJeune/nsrun/runtime/pkg/container"
	"github.com/moby/sys/signal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ForwardAllSignals forwards signals to the container
//
// The channel you pass in must already be setup to receive any signals you want to forward.
func ForwardAllSignals(ctx context.Context, c *container.Container, sigc <-chan os.Signal) {
	var (
		s  os.Signal
		ok bool
	)
	for {
		select {
		case s, ok = <-sigc:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		if s == signal.SIGCHLD || s == signal.SIGPIPE {
			continue
		}

		// In go1.14+, the go runtime issues SIGURG as an interrupt to support pre-emptable system calls on Linux.
		// Since we can't forward SIGURG, just ignore it.
		if s == unix.SIGURG {
			continue
		}

		sig, ok := s.(syscall.Signal)
		if !ok {
			logrus.Errorf("Unsupported signal: %v. Discarding.", s)
			continue
		}
		if err := c.Signal(sig); err != nil {
			logrus.Debugf("Error sending signal %v to container: %v", sig, err)
		}
	}
}

// proxySignals catches every signal nsrun can receive and forwards it to c
// until the returned function is called.
func proxySignals(ctx context.Context, c *container.Container) func() {
	ctx, cancel := context.WithCancel(ctx)
	sigc := make(chan os.Signal, 128)
	signal.CatchAll(sigc)
	go ForwardAllSignals(ctx, c, sigc)
	return func() {
		signal.StopCatch(sigc)
		cancel()
	}
}
