package container

import (
	"syscall"
	"testing"

	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"golang.org/x/sys/unix"
)

func TestOutcomeFromStatus(t *testing.T) {
	cases := []struct {
		name     string
		status   syscall.WaitStatus
		expected ProcessOutcome
		exitCode int
	}{
		{"exit 0", 0, exited(0), 0},
		{"exit 7", 7 << 8, exited(7), 7},
		{"exit 255", 255 << 8, exited(255), 255},
		{"killed", syscall.WaitStatus(unix.SIGKILL), terminated(unix.SIGKILL), 137},
		{"terminated", syscall.WaitStatus(unix.SIGTERM), terminated(unix.SIGTERM), 143},
		{"core dumped", syscall.WaitStatus(unix.SIGSEGV) | 0x80, terminated(unix.SIGSEGV), 139},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			outcome, err := outcomeFromStatus(c.status)
			if err != nil {
				t.Fatal(err)
			}
			if outcome != c.expected {
				t.Errorf("expected %s, got %s", c.expected, outcome)
			}
			if code := outcome.ExitCode(); code != c.exitCode {
				t.Errorf("expected exit code %d, got %d", c.exitCode, code)
			}
		})
	}
}

func TestOutcomeFromStoppedStatus(t *testing.T) {
	stopped := syscall.WaitStatus(unix.SIGSTOP)<<8 | 0x7f
	outcome, err := outcomeFromStatus(stopped)
	if !failure.Is(err, failure.WaitError) {
		t.Fatalf("expected a wait error, got %v", err)
	}
	if outcome.Kind != UnknownOutcome {
		t.Errorf("expected an unknown outcome, got %s", outcome)
	}
	if outcome.ExitCode() != -1 {
		t.Errorf("unexpected exit code %d", outcome.ExitCode())
	}
}

func TestInitFailure(t *testing.T) {
	for code := 0; code < 256; code++ {
		step, ok := exited(code).InitFailure()
		reserved := code >= 110 && code <= 119
		if ok != reserved {
			t.Errorf("exit code %d: reserved=%v, got %v", code, reserved, ok)
			continue
		}
		if ok && step.ExitCode() != code {
			t.Errorf("exit code %d maps back to %d", code, step.ExitCode())
		}
	}
	if _, ok := terminated(unix.SIGKILL).InitFailure(); ok {
		t.Error("a signal is not an init failure")
	}
}

func TestInitStepKinds(t *testing.T) {
	cases := []struct {
		code int
		kind failure.Kind
	}{
		{110, failure.ChannelError},
		{111, failure.ChannelError},
		{112, failure.IsolationStepFailed},
		{113, failure.IsolationStepFailed},
		{116, failure.IsolationStepFailed},
		{118, failure.IsolationStepFailed},
		{119, failure.ExecFailed},
	}
	for _, c := range cases {
		step, ok := StepFromExitCode(c.code)
		if !ok {
			t.Fatalf("%d is not a reserved code", c.code)
		}
		if step.Kind() != c.kind {
			t.Errorf("%d (%s): expected %s, got %s", c.code, step, c.kind, step.Kind())
		}
	}
}

func TestStepForMount(t *testing.T) {
	for dest, expected := range map[string]InitStep{
		"/proc":    StepMountProc,
		"/dev":     StepMountDev,
		"/dev/pts": StepMountPts,
		"/sys":     StepMountDev,
	} {
		if step := stepForMount(dest); step != expected {
			t.Errorf("%s: expected %s, got %s", dest, expected, step)
		}
	}
}

func TestInitErrorKind(t *testing.T) {
	err := newInitError(StepHostname, unix.EPERM)
	if !failure.Is(err, failure.IsolationStepFailed) {
		t.Errorf("expected an isolation step failure, got %v", failure.KindOf(err))
	}
	if err.Error() != "sethostname: operation not permitted" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
