package container

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/cgroups"
	"golang.org/x/sys/unix"
)

// The test binary doubles as the init process, exactly like the nsrun
// binary does with its init command.
func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		Init()
		return
	}
	os.Exit(m.Run())
}

var containerSeq int

// newRealContainer needs root and a root filesystem with a shell, given by
// NSRUN_TEST_ROOTFS (a busybox rootfs is enough).
func newRealContainer(t *testing.T, command string, args ...string) *Container {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root")
	}
	rootfs := os.Getenv("NSRUN_TEST_ROOTFS")
	if rootfs == "" {
		t.Skip("NSRUN_TEST_ROOTFS is not set")
	}
	containerSeq++
	cfg := config.New(fmt.Sprintf("nsrun-test-%d-%d", os.Getpid(), containerSeq), rootfs)
	cfg.Command = command
	cfg.Args = args
	cfg.MemoryLimit = 64
	cfg.ProcessLimit = 32
	m, err := cgroups.NewManager(cgroups.DefaultRoot(), cfg.Cgroup())
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(cfg, m, WithStopTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if m.Exists() {
			t.Errorf("cgroup %s left behind", m.Path())
		}
	})
	return c
}

func runOutcome(t *testing.T, c *Container, timeout time.Duration) ProcessOutcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	outcome, err := c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return outcome
}

func TestRunTrue(t *testing.T) {
	c := newRealContainer(t, "/bin/true")
	if outcome := runOutcome(t, c, 10*time.Second); outcome != exited(0) {
		t.Errorf("unexpected outcome %s", outcome)
	}
	if s := c.Status(); s != TornDown {
		t.Errorf("expected status %s, got %s", TornDown, s)
	}
}

func TestRunExitCode(t *testing.T) {
	c := newRealContainer(t, "sh", "-c", "exit 7")
	if outcome := runOutcome(t, c, 10*time.Second); outcome != exited(7) {
		t.Errorf("unexpected outcome %s", outcome)
	}
}

func TestRunIsolation(t *testing.T) {
	// hostname, pid 1 and a fresh /proc are all visible from inside
	c := newRealContainer(t, "sh", "-c", `[ "$(cat /proc/sys/kernel/hostname)" = "$HOSTNAME" ] && [ "$$" = 1 ] && [ -c /dev/null ]`)
	if outcome := runOutcome(t, c, 10*time.Second); outcome != exited(0) {
		t.Errorf("unexpected outcome %s", outcome)
	}
}

func TestRunInsideCgroup(t *testing.T) {
	c := newRealContainer(t, "sh", "-c", `grep -q "/$HOSTNAME\$" /proc/self/cgroup`)
	if outcome := runOutcome(t, c, 10*time.Second); outcome != exited(0) {
		t.Errorf("unexpected outcome %s", outcome)
	}
}

func TestRunKilledOnTimeout(t *testing.T) {
	c := newRealContainer(t, "sleep", "30")
	outcome := runOutcome(t, c, 200*time.Millisecond)
	if outcome != terminated(unix.SIGKILL) {
		t.Errorf("unexpected outcome %s", outcome)
	}
}

func TestRunExecFailure(t *testing.T) {
	c := newRealContainer(t, "/does/not/exist")
	outcome := runOutcome(t, c, 10*time.Second)
	step, ok := outcome.InitFailure()
	if !ok || step != StepExec {
		t.Errorf("expected an exec failure, got %s", outcome)
	}
}
