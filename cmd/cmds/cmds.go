package cmds

import (
	"github.com/DeJeune/nsrun/cmd"
	"github.com/DeJeune/nsrun/cmd/container"
	"github.com/spf13/cobra"
)

func AddCommands(cmd *cobra.Command, nsrunCli *cmd.NsrunCli) {
	cmd.AddCommand(
		container.NewRunCommand(nsrunCli),
		container.NewStartCommand(nsrunCli),
		container.NewInitCommand(nsrunCli),
	)
}
