package container

import (
	"github.com/DeJeune/nsrun/cli/opts"
	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/pkg/capabilities"
	"github.com/docker/docker/errdefs"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type containerOptions struct {
	Rootfs  string
	Command string
	Args    []string

	hostname  string
	memory    opts.MemBytes
	pidsLimit int64
	env       opts.ListOpts
	envFile   opts.ListOpts
	capAdd    opts.ListOpts
	capDrop   opts.ListOpts
}

func addFlags(flags *pflag.FlagSet) *containerOptions {
	copts := &containerOptions{
		memory:  opts.MemBytes(config.DefaultMemoryLimit << 20),
		env:     opts.NewListOpts(opts.ValidateEnv),
		envFile: opts.NewListOpts(nil),
		capAdd:  opts.NewListOpts(opts.ValidateCapability),
		capDrop: opts.NewListOpts(opts.ValidateCapability),
	}
	flags.StringVar(&copts.hostname, "hostname", config.DefaultHostname, "Container host name, also the name of its cgroup")

	// Resource management
	flags.VarP(&copts.memory, "memory", "m", "Memory limit, rounded up to whole MiB (0 for unlimited)")
	flags.Int64Var(&copts.pidsLimit, "pids-limit", 0, "Tune container pids limit (0 for unlimited)")

	// Process environment
	flags.VarP(&copts.env, "env", "e", "Set environment variables")
	flags.Var(&copts.envFile, "env-file", "Read in a file of environment variables")

	// Security
	flags.Var(&copts.capAdd, "cap-add", "Add Linux capabilities")
	flags.Var(&copts.capDrop, "cap-drop", "Drop Linux capabilities")
	return copts
}

// parse builds the container configuration from the command line.
func parse(copts *containerOptions) (config.Config, error) {
	c := config.New(copts.hostname, copts.Rootfs)
	if copts.Command != "" {
		c.Command = copts.Command
	}
	c.Args = copts.Args

	if copts.pidsLimit < 0 {
		return c, errdefs.InvalidParameter(errors.Errorf("invalid pids limit %d", copts.pidsLimit))
	}
	c.MemoryLimit = copts.memory.MiB()
	c.ProcessLimit = uint64(copts.pidsLimit)

	env, err := opts.ReadKVEnvStrings(copts.envFile.GetAll(), copts.env.GetAll())
	if err != nil {
		return c, errdefs.InvalidParameter(err)
	}
	c.Env = env

	for _, name := range append(copts.capAdd.GetAll(), copts.capDrop.GetAll()...) {
		if capabilities.Normalize(name) != "CAP_ALL" && !capabilities.Known(name) {
			return c, errdefs.InvalidParameter(errors.Errorf("unknown capability: %q", name))
		}
	}
	c.Capabilities = capabilities.Merge(c.Capabilities, copts.capAdd.GetAll(), copts.capDrop.GetAll())

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
