package cmds

import (
	"context"
	"fmt"

	"github.com/DeJeune/nsrun/cli"
	cliflags "github.com/DeJeune/nsrun/cli/flag"
	"github.com/DeJeune/nsrun/cli/version"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/spf13/cobra"
)

func NewNsrunCommand(nsrunCli *cmd.NsrunCli) *cli.TopLevelCommand {
	var opts *cliflags.ClientOptions

	cmd := &cobra.Command{
		Use:     "nsrun [OPTIONS] COMMAND [ARG...]",
		Short:   "Run a process in fresh namespaces under a cgroup v2 limit",
		Version: fmt.Sprintf("%s, build %s", version.Version, version.GitCommit),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.HelpFunc()(cmd, args)
				return nil
			}
			return fmt.Errorf("nsrun: '%s' is not a nsrun command.\nSee 'nsrun --help'", args[0])
		},
		TraverseChildren: true,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}
	opts = cli.SetupRootCommand(cmd)
	cmd.Flags().BoolP("version", "v", false, "Print version information and quit")

	AddCommands(cmd, nsrunCli)
	return cli.NewTopLevelCommand(cmd, nsrunCli, opts)
}

func RunNsrun(ctx context.Context, nsrunCli *cmd.NsrunCli) error {
	tcmd := NewNsrunCommand(nsrunCli)
	return runTopLevel(ctx, tcmd)
}

func runTopLevel(ctx context.Context, tcmd *cli.TopLevelCommand) error {
	cmd, args, err := tcmd.HandleGlobalFlags()
	if err != nil {
		return err
	}
	if err := tcmd.Initialize(); err != nil {
		return err
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
