package container

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DeJeune/nsrun/cli"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/cgroups"
	"github.com/DeJeune/nsrun/runtime/pkg/container"
	"github.com/DeJeune/nsrun/runtime/pkg/failure"
	"github.com/DeJeune/nsrun/runtime/utils"
	"github.com/moby/sys/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOptions struct {
	detach      bool
	sigProxy    bool
	timeout     time.Duration
	stopSignal  string
	stopTimeout time.Duration
}

func NewRunCommand(nsrunCli *cmd.NsrunCli) *cobra.Command {
	var copts *containerOptions
	var options runOptions

	runCmd := &cobra.Command{
		Use:   "run [OPTIONS] ROOTFS [COMMAND] [ARG...]",
		Short: "Run a command in a new container",
		Long: `Run a command in a new container rooted at ROOTFS and wait for it.
The exit code of the command becomes the exit code of nsrun.`,
		Args: cli.RequiresMinArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copts.Rootfs = args[0]
			if len(args) > 1 {
				copts.Command = args[1]
				copts.Args = args[2:]
			}
			return runRun(cmd.Context(), nsrunCli, &options, copts)
		},
	}
	flags := runCmd.Flags()
	flags.SetInterspersed(false)

	flags.BoolVarP(&options.detach, "detach", "d", false, "Run the container in the background and print its pid")
	flags.BoolVar(&options.sigProxy, "sig-proxy", true, "Proxy received signals to the process")
	flags.DurationVar(&options.timeout, "timeout", 0, "Stop the container after this duration (0 for no limit)")
	flags.StringVar(&options.stopSignal, "stop-signal", "SIGTERM", "Signal to stop the container")
	flags.DurationVar(&options.stopTimeout, "stop-timeout", 10*time.Second, "Time to wait for the container to stop before killing it")
	copts = addFlags(flags)
	return runCmd
}

func runRun(ctx context.Context, nsrunCli cmd.Cli, ropts *runOptions, copts *containerOptions) error {
	containerConfig, err := parse(copts)
	if err != nil {
		reportError(nsrunCli.Err(), "run", err.Error(), true)
		return cli.StatusError{StatusCode: 125}
	}
	stopSignal, err := signal.ParseSignal(ropts.stopSignal)
	if err != nil {
		reportError(nsrunCli.Err(), "run", err.Error(), true)
		return cli.StatusError{StatusCode: 125}
	}
	if ropts.detach && ropts.timeout > 0 {
		reportError(nsrunCli.Err(), "run", "Conflicting options: --timeout and -d", true)
		return cli.StatusError{StatusCode: 125}
	}

	c, err := newContainer(nsrunCli, containerConfig,
		container.WithStopSignal(stopSignal),
		container.WithStopTimeout(ropts.stopTimeout),
	)
	if err != nil {
		reportError(nsrunCli.Err(), "run", err.Error(), false)
		return runStartContainerErr(err)
	}
	if ropts.detach {
		return startContainer(nsrunCli, c, "run", false)
	}
	return runContainer(ctx, nsrunCli, ropts, c)
}

func runContainer(ctx context.Context, nsrunCli cmd.Cli, ropts *runOptions, c *container.Container) error {
	if ropts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ropts.timeout)
		defer cancel()
	}
	if ropts.sigProxy {
		stop := proxySignals(ctx, c)
		defer stop()
	}

	outcome, err := c.Run(ctx)
	if err != nil && outcome.Kind != container.ExitedNormally && outcome.Kind != container.Terminated {
		reportError(nsrunCli.Err(), "run", err.Error(), false)
		return runStartContainerErr(err)
	}
	if err != nil {
		// the container ran, only its cleanup failed
		logrus.WithField("container", c.ID()).Warn(err)
	}
	return outcomeStatus(nsrunCli.Err(), outcome)
}

func newContainer(nsrunCli cmd.Cli, cfg config.Config, opts ...container.Option) (*container.Container, error) {
	m, err := cgroups.NewManager(nsrunCli.CgroupRoot(), cfg.Cgroup())
	if err != nil {
		return nil, err
	}
	opts = append([]container.Option{
		container.WithStdio(nsrunCli.In(), nsrunCli.Out(), nsrunCli.Err()),
		container.WithLogging(logrus.GetLevel().String(), nsrunCli.Options().LogFormat),
	}, opts...)
	return container.New(cfg, m, opts...)
}

// startContainer starts c detached and prints its pid, or its state as
// JSON.
func startContainer(nsrunCli cmd.Cli, c *container.Container, name string, asJSON bool) error {
	pid, err := c.Start(true)
	if err != nil {
		reportError(nsrunCli.Err(), name, err.Error(), false)
		return runStartContainerErr(err)
	}
	logrus.WithFields(logrus.Fields{"container": c.ID(), "pid": pid}).Debug("container detached")
	if asJSON {
		if err := utils.WriteJSON(nsrunCli.Out(), c.State()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(nsrunCli.Out())
		return nil
	}
	_, _ = fmt.Fprintln(nsrunCli.Out(), pid)
	return nil
}

// outcomeStatus turns the outcome of an attached run into the exit status
// of nsrun.
func outcomeStatus(stderr io.Writer, outcome container.ProcessOutcome) error {
	if step, ok := outcome.InitFailure(); ok {
		reportError(stderr, "run", fmt.Sprintf("container init failed at %s (%s)", step, step.Kind()), false)
		if step.Kind() == failure.ExecFailed {
			return cli.StatusError{StatusCode: 127}
		}
		return cli.StatusError{StatusCode: 125}
	}
	switch outcome.Kind {
	case container.ExitedNormally, container.Terminated:
		if code := outcome.ExitCode(); code != 0 {
			return cli.StatusError{StatusCode: code}
		}
		return nil
	default:
		return cli.StatusError{Status: outcome.String(), StatusCode: 125}
	}
}

func reportError(stderr io.Writer, name string, str string, withHelp bool) {
	str = strings.TrimSuffix(str, ".") + "."
	if withHelp {
		str += "\nSee 'nsrun " + name + " --help'."
	}
	_, _ = fmt.Fprintln(stderr, "nsrun:", str)
}

// 容器的程序无法执行时返回127，其余启动失败返回125
func runStartContainerErr(err error) error {
	if failure.Is(err, failure.ExecFailed) {
		return cli.StatusError{StatusCode: 127}
	}
	return cli.StatusError{StatusCode: 125}
}
