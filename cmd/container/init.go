package container

import (
	"github.com/DeJeune/nsrun/cli"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/DeJeune/nsrun/runtime/pkg/container"
	"github.com/spf13/cobra"
)

// NewInitCommand 子进程的入口，只能由 nsrun 自身调用
func NewInitCommand(nsrunCli *cmd.NsrunCli) *cobra.Command {
	cmd := &cobra.Command{
		Use:                "init",
		Short:              "Initialize the container from inside its namespaces, can't be used outside",
		Hidden:             true,
		Args:               cli.NoArgs,
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			container.Init()
		},
	}
	return cmd
}
