package cmd

import (
	"os"

	"github.com/DeJeune/nsrun/cli/config"
	cliflags "github.com/DeJeune/nsrun/cli/flag"
)

type Streams interface {
	In() *os.File
	Out() *os.File
	Err() *os.File
}

type Cli interface {
	Streams
	CgroupRoot() string
	Options() *cliflags.ClientOptions
	Apply(ops ...CLIOption) error
}

// NsrunCli 保存命令执行期间共享的流和全局选项
type NsrunCli struct {
	in      *os.File
	out     *os.File
	err     *os.File
	options *cliflags.ClientOptions
}

// Out returns the writer used for stdout
func (cli *NsrunCli) Out() *os.File {
	return cli.out
}

func (cli *NsrunCli) Err() *os.File {
	return cli.err
}

func (cli *NsrunCli) In() *os.File {
	return cli.in
}

// CgroupRoot returns the directory container cgroups are created in.
func (cli *NsrunCli) CgroupRoot() string {
	return config.CgroupRoot()
}

func (cli *NsrunCli) Options() *cliflags.ClientOptions {
	if cli.options == nil {
		return cliflags.NewClientOptions()
	}
	return cli.options
}

func (cli *NsrunCli) Initialize(opts *cliflags.ClientOptions, ops ...CLIOption) error {
	for _, o := range ops {
		if err := o(cli); err != nil {
			return err
		}
	}
	if opts.Debug {
		opts.LogLevel = "debug"
	}
	cliflags.SetLogLevel(opts.LogLevel)
	cliflags.SetLogFormat(opts.LogFormat)

	if opts.CgroupRoot != "" {
		config.SetCgroupRoot(opts.CgroupRoot)
	}

	cli.options = opts
	return nil
}

func (cli *NsrunCli) Apply(ops ...CLIOption) error {
	for _, op := range ops {
		if err := op(cli); err != nil {
			return err
		}
	}
	return nil
}

func NewNsrunCli(ops ...CLIOption) (*NsrunCli, error) {
	defaultOps := []CLIOption{
		WithStandardStreams(),
	}
	ops = append(defaultOps, ops...)
	cli := &NsrunCli{}
	if err := cli.Apply(ops...); err != nil {
		return nil, err
	}
	return cli, nil
}
