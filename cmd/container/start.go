package container

import (
	"github.com/DeJeune/nsrun/cli"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/spf13/cobra"
)

type startOptions struct {
	json bool
}

func NewStartCommand(nsrunCli *cmd.NsrunCli) *cobra.Command {
	var copts *containerOptions
	var opts startOptions

	cmd := &cobra.Command{
		Use:   "start [OPTIONS] ROOTFS [COMMAND] [ARG...]",
		Short: "Start a container in the background and print its pid",
		Long: `Start a container in the background and print its pid.
The container keeps running after nsrun exits, its cgroup is left in place.`,
		Args: cli.RequiresMinArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copts.Rootfs = args[0]
			if len(args) > 1 {
				copts.Command = args[1]
				copts.Args = args[2:]
			}
			return runStart(nsrunCli, &opts, copts)
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.BoolVar(&opts.json, "json", false, "Print the container state as JSON instead of the pid")
	copts = addFlags(flags)
	return cmd
}

func runStart(nsrunCli cmd.Cli, opts *startOptions, copts *containerOptions) error {
	containerConfig, err := parse(copts)
	if err != nil {
		reportError(nsrunCli.Err(), "start", err.Error(), true)
		return cli.StatusError{StatusCode: 125}
	}
	c, err := newContainer(nsrunCli, containerConfig)
	if err != nil {
		reportError(nsrunCli.Err(), "start", err.Error(), false)
		return runStartContainerErr(err)
	}
	return startContainer(nsrunCli, c, "start", opts.json)
}
