package cli

import (
	"fmt"
	"os"
	"strings"

	cliflags "github.com/DeJeune/nsrun/cli/flag"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// usageWidth 是帮助信息中选项说明的换行宽度
const usageWidth = 80

// SetupRootCommand installs the global options, the help command and the
// usage templates on the nsrun root command.
func SetupRootCommand(rootCmd *cobra.Command) *cliflags.ClientOptions {
	opts := cliflags.NewClientOptions()
	opts.InstallFlags(rootCmd.Flags())

	cobra.AddTemplateFunc("containerCommands", containerCommands)
	cobra.AddTemplateFunc("wrappedFlagUsages", wrappedFlagUsages)
	rootCmd.SetVersionTemplate("nsrun version {{.Version}}\n")
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetHelpTemplate(helpTemplate)
	rootCmd.SetFlagErrorFunc(FlagErrorFunc)
	rootCmd.SetHelpCommand(helpCommand)

	rootCmd.PersistentFlags().BoolP("help", "h", false, "Print usage")
	rootCmd.PersistentFlags().MarkShorthandDeprecated("help", "please use --help")
	rootCmd.PersistentFlags().Lookup("help").Hidden = true
	return opts
}

// FlagErrorFunc turns a flag parsing error of any nsrun command into exit
// status 125.
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	return StatusError{
		Status:     fmt.Sprintf("nsrun: %s\nSee '%s --help'.", err, cmd.CommandPath()),
		StatusCode: 125,
	}
}

var helpCommand = &cobra.Command{
	Use:   "help [COMMAND]",
	Short: "Show help for nsrun or one of its commands",
	RunE: func(c *cobra.Command, args []string) error {
		target, rest, err := c.Root().Find(args)
		if target == nil || err != nil || len(rest) > 0 {
			return errors.Errorf("unknown help topic %v", strings.Join(args, " "))
		}
		target.HelpFunc()(target, rest)
		return nil
	},
}

// TopLevelCommand 包装根命令，在 cobra 解析子命令之前先处理全局选项
type TopLevelCommand struct {
	cmd      *cobra.Command
	nsrunCli *cmd.NsrunCli
	opts     *cliflags.ClientOptions
	args     []string
}

func NewTopLevelCommand(cmd *cobra.Command, nsrunCli *cmd.NsrunCli, opts *cliflags.ClientOptions) *TopLevelCommand {
	return &TopLevelCommand{
		cmd:      cmd,
		nsrunCli: nsrunCli,
		opts:     opts,
		args:     os.Args[1:],
	}
}

// SetArgs replaces os.Args[1:] as the command line.
func (tcmd *TopLevelCommand) SetArgs(args []string) {
	tcmd.args = args
	tcmd.cmd.SetArgs(args)
}

// HandleGlobalFlags 只解析 COMMAND 之前的全局选项，例如
// nsrun --debug run ./rootfs sh 中的 --debug
func (tcmd *TopLevelCommand) HandleGlobalFlags() (*cobra.Command, []string, error) {
	root := tcmd.cmd

	flags := pflag.NewFlagSet(root.Name(), pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.AddFlagSet(root.Flags())
	flags.AddFlagSet(root.PersistentFlags())

	if err := flags.Parse(tcmd.args); err != nil {
		// 日志选项仍然生效，报错信息按用户要求的格式输出
		if err := tcmd.Initialize(); err != nil {
			return nil, nil, err
		}
		return nil, nil, root.FlagErrorFunc()(root, err)
	}
	return root, flags.Args(), nil
}

// Initialize applies the parsed global options to the nsrun client.
func (tcmd *TopLevelCommand) Initialize(ops ...cmd.CLIOption) error {
	return tcmd.nsrunCli.Initialize(tcmd.opts, ops...)
}

// containerCommands lists the commands shown in the root usage. nsrun has no
// command groups, so every visible command is listed.
func containerCommands(cmd *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			cmds = append(cmds, sub)
		}
	}
	return cmds
}

func wrappedFlagUsages(cmd *cobra.Command) string {
	return cmd.Flags().FlagUsagesWrapped(usageWidth - 1)
}

var usageTemplate = `Usage:
{{- if .HasParent}}  {{.UseLine}}{{else}}  {{.CommandPath}} [OPTIONS] COMMAND{{end}}

{{if ne .Long ""}}{{ .Long | trim }}{{ else }}{{ .Short | trim }}{{end}}

{{- if .HasExample}}

Examples:
{{ .Example }}
{{- end}}

{{- if .HasParent}}
{{- if .HasAvailableFlags}}

Options:
{{ wrappedFlagUsages . | trimRightSpace}}
{{- end}}
{{- else}}

Commands:
{{- range containerCommands . }}
  {{rpad .Name .NamePadding }} {{.Short}}
{{- end}}

Global Options:
{{ wrappedFlagUsages . | trimRightSpace}}

Exit Status:
  0-255   exit status of the container program
  128+N   the container program was killed by signal N
  125     nsrun failed before the container program ran
  127     the container program could not be executed

Run '{{.CommandPath}} COMMAND --help' for more information on a command.
{{- end}}
`

var helpTemplate = `
{{if .Runnable}}{{.UsageString}}{{end}}`
