package container

import (
	"bytes"
	"strings"
	"syscall"
	"testing"

	"github.com/DeJeune/nsrun/cli"
	"github.com/DeJeune/nsrun/runtime/pkg/container"
	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"github.com/docker/docker/errdefs"
	"github.com/pkg/errors"
)

func statusCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var sterr cli.StatusError
	if !errors.As(err, &sterr) {
		t.Fatalf("expected a status error, got %v", err)
	}
	return sterr.StatusCode
}

func TestOutcomeStatus(t *testing.T) {
	cases := []struct {
		name     string
		outcome  container.ProcessOutcome
		expected int
		stderr   string
	}{
		{"success", container.ProcessOutcome{Kind: container.ExitedNormally}, 0, ""},
		{"exit 7", container.ProcessOutcome{Kind: container.ExitedNormally, Code: 7}, 7, ""},
		{"killed", container.ProcessOutcome{Kind: container.Terminated, Signal: syscall.SIGKILL}, 137, ""},
		{"chroot failed", container.ProcessOutcome{Kind: container.ExitedNormally, Code: container.StepRootfs.ExitCode()}, 125, "chroot"},
		{"exec failed", container.ProcessOutcome{Kind: container.ExitedNormally, Code: container.StepExec.ExitCode()}, 127, "exec failed"},
		{"unknown", container.ProcessOutcome{}, 125, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := statusCode(t, outcomeStatus(&stderr, c.outcome)); code != c.expected {
				t.Errorf("expected exit code %d, got %d", c.expected, code)
			}
			if !strings.Contains(stderr.String(), c.stderr) {
				t.Errorf("expected %q in %q", c.stderr, stderr.String())
			}
		})
	}
}

func TestRunStartContainerErr(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{failure.New(failure.ExecFailed, "exec", syscall.ENOENT), 127},
		{failure.New(failure.SpawnFailed, "spawn init", syscall.EPERM), 125},
		{errdefs.Conflict(failure.New(failure.DirectoryCreateError, "mkdir", syscall.EEXIST)), 125},
		{errors.New("anything else"), 125},
	}
	for _, c := range cases {
		if code := statusCode(t, runStartContainerErr(c.err)); code != c.expected {
			t.Errorf("%v: expected %d, got %d", c.err, c.expected, code)
		}
	}
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, "run", "no such rootfs.", true)
	expected := "nsrun: no such rootfs.\nSee 'nsrun run --help'.\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}
