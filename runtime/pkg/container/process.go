package container

import (
	"fmt"
	"syscall"

	"github.com/DeJeune/nsrun/runtime/pkg/failure"
)

type OutcomeKind int

const (
	UnknownOutcome OutcomeKind = iota
	ExitedNormally
	Terminated
	SpawnFailed
)

// ProcessOutcome is the terminal result of one container run.
type ProcessOutcome struct {
	Kind OutcomeKind
	// Code is set for ExitedNormally.
	Code int
	// Signal is set for Terminated.
	Signal syscall.Signal
	// Reason is set for SpawnFailed.
	Reason string
}

func exited(code int) ProcessOutcome {
	return ProcessOutcome{Kind: ExitedNormally, Code: code}
}

func terminated(sig syscall.Signal) ProcessOutcome {
	return ProcessOutcome{Kind: Terminated, Signal: sig}
}

func spawnFailed(err error) ProcessOutcome {
	return ProcessOutcome{Kind: SpawnFailed, Reason: err.Error()}
}

func (o ProcessOutcome) String() string {
	switch o.Kind {
	case ExitedNormally:
		return fmt.Sprintf("exited with code %d", o.Code)
	case Terminated:
		return fmt.Sprintf("terminated by signal %d (%s)", int(o.Signal), o.Signal)
	case SpawnFailed:
		return "spawn failed: " + o.Reason
	default:
		return "unknown"
	}
}

// ExitCode folds the outcome into a shell style status: signals become
// 128+n, anything that never ran is -1.
func (o ProcessOutcome) ExitCode() int {
	switch o.Kind {
	case ExitedNormally:
		return o.Code
	case Terminated:
		return 128 + int(o.Signal)
	default:
		return -1
	}
}

// InitFailure reports whether the container died in its own setup, before
// the configured command could be executed.
func (o ProcessOutcome) InitFailure() (InitStep, bool) {
	if o.Kind != ExitedNormally {
		return 0, false
	}
	return StepFromExitCode(o.Code)
}

// outcomeFromStatus maps a wait status. Stopped or continued children are
// not terminal and are reported as WaitError.
func outcomeFromStatus(ws syscall.WaitStatus) (ProcessOutcome, error) {
	switch {
	case ws.Exited():
		return exited(ws.ExitStatus()), nil
	case ws.Signaled():
		return terminated(ws.Signal()), nil
	default:
		return ProcessOutcome{Kind: UnknownOutcome}, failure.New(failure.WaitError, fmt.Sprintf("unexpected wait status %#x", uint32(ws)), nil)
	}
}
