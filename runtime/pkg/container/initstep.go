package container

import (
	"fmt"

	"github.com/DeJeune/nsrun/runtime/pkg/failure"
)

// InitStep identifies a setup step of the init process. A failing step makes
// init exit with InitExitBase+step, so the reserved range is 110-119.
type InitStep int

const (
	StepConfig InitStep = iota
	StepBarrier
	StepHostname
	StepRootfs
	StepChdir
	StepMountProc
	StepMountDev
	StepMountPts
	StepCapabilities
	StepExec

	stepCount
)

const InitExitBase = 110

var stepToString = []string{
	StepConfig:       "decode init config",
	StepBarrier:      "wait for parent",
	StepHostname:     "sethostname",
	StepRootfs:       "chroot",
	StepChdir:        "chdir",
	StepMountProc:    "mount /proc",
	StepMountDev:     "mount /dev",
	StepMountPts:     "mount /dev/pts",
	StepCapabilities: "apply capabilities",
	StepExec:         "exec",
}

func (s InitStep) String() string {
	if s >= 0 && s < stepCount {
		return stepToString[s]
	}
	return fmt.Sprintf("unknown step %d", int(s))
}

func (s InitStep) ExitCode() int {
	return InitExitBase + int(s)
}

func (s InitStep) Kind() failure.Kind {
	switch s {
	case StepConfig, StepBarrier:
		return failure.ChannelError
	case StepExec:
		return failure.ExecFailed
	default:
		return failure.IsolationStepFailed
	}
}

func StepFromExitCode(code int) (InitStep, bool) {
	s := InitStep(code - InitExitBase)
	if s < 0 || s >= stepCount {
		return 0, false
	}
	return s, true
}

// stepForMount picks the exit step of a mount by its destination. Mounts
// other than /proc and /dev/pts share the /dev code.
func stepForMount(dest string) InitStep {
	switch dest {
	case "/proc":
		return StepMountProc
	case "/dev/pts":
		return StepMountPts
	default:
		return StepMountDev
	}
}

// initError records which step failed inside the init process.
type initError struct {
	Step InitStep
	Err  error
}

func (e *initError) Error() string {
	return e.Step.String() + ": " + e.Err.Error()
}

func (e *initError) Unwrap() error {
	return failure.New(e.Step.Kind(), e.Step.String(), e.Err)
}

func newInitError(step InitStep, err error) error {
	return &initError{Step: step, Err: err}
}
