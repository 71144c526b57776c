package config

import (
	"math"
	"os"
	"strings"

	"github.com/docker/docker/errdefs"
	"github.com/pkg/errors"
)

const (
	// DefaultHostname 同时也是默认的 cgroup 名
	DefaultHostname = "default"
	DefaultRootfs   = "rootfs"
	DefaultCommand  = "/bin/sh"
	// DefaultMemoryLimit is expressed in MiB.
	DefaultMemoryLimit = 512

	// DefaultPath is the PATH handed to the container program when Env
	// does not carry one.
	DefaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

	hostNameMax = 64
	mib         = 1024 * 1024
)

// IDMap represents UID/GID Mappings for User Namespaces.
type IDMap struct {
	ContainerID int64 `json:"container_id"`
	HostID      int64 `json:"host_id"`
	Size        int64 `json:"size"`
}

// Config describes what to run inside a container and how to constrain it.
// A Config is treated as immutable once handed to a container; use Clone to
// derive a modified copy.
type Config struct {
	// Hostname is also the container name, and the leaf of its cgroup.
	Hostname string   `json:"hostname"`
	Rootfs   string   `json:"rootfs"`
	Command  string   `json:"command"`
	Args     []string `json:"args,omitempty"`
	// MemoryLimit is in MiB, 0 means unlimited.
	MemoryLimit uint64 `json:"memory_limit"`
	// ProcessLimit caps the number of tasks, 0 means unlimited.
	ProcessLimit uint64 `json:"process_limit"`

	Env          []string `json:"env,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	UIDMappings  []IDMap  `json:"uid_mappings,omitempty"`
	GIDMappings  []IDMap  `json:"gid_mappings,omitempty"`
	Mounts       []*Mount `json:"mounts,omitempty"`
}

// Default returns the configuration used when the caller supplies nothing.
func Default() Config {
	return Config{
		Hostname:     DefaultHostname,
		Rootfs:       DefaultRootfs,
		Command:      DefaultCommand,
		MemoryLimit:  DefaultMemoryLimit,
		Capabilities: DefaultCapabilities(),
		Mounts:       DefaultMounts(),
	}
}

// New returns the default configuration for a named container rooted at rootfs.
func New(name, rootfs string) Config {
	c := Default()
	c.Hostname = name
	c.Rootfs = rootfs
	return c
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Args = append([]string(nil), c.Args...)
	out.Env = append([]string(nil), c.Env...)
	out.Capabilities = append([]string(nil), c.Capabilities...)
	out.UIDMappings = append([]IDMap(nil), c.UIDMappings...)
	out.GIDMappings = append([]IDMap(nil), c.GIDMappings...)
	out.Mounts = nil
	for _, m := range c.Mounts {
		mc := *m
		out.Mounts = append(out.Mounts, &mc)
	}
	return out
}

// Validate checks the fields the runtime relies on before any cgroup or
// namespace is created.
func (c Config) Validate() error {
	switch {
	case c.Hostname == "":
		return errdefs.InvalidParameter(errors.New("hostname must not be empty"))
	case len(c.Hostname) > hostNameMax:
		return errdefs.InvalidParameter(errors.Errorf("hostname %q is longer than %d bytes", c.Hostname, hostNameMax))
	case strings.ContainsRune(c.Hostname, '/') || c.Hostname == "." || c.Hostname == "..":
		return errdefs.InvalidParameter(errors.Errorf("hostname %q cannot be used as a container name", c.Hostname))
	case c.Command == "":
		return errdefs.InvalidParameter(errors.New("no command specified"))
	case c.Rootfs == "":
		return errdefs.InvalidParameter(errors.New("rootfs must not be empty"))
	case c.MemoryLimit > math.MaxInt64/mib:
		return errdefs.InvalidParameter(errors.Errorf("memory limit %d MiB is too large", c.MemoryLimit))
	case c.ProcessLimit > math.MaxInt64:
		return errdefs.InvalidParameter(errors.Errorf("process limit %d is too large", c.ProcessLimit))
	}
	fi, err := os.Stat(c.Rootfs)
	if err != nil {
		if os.IsNotExist(err) {
			return errdefs.NotFound(errors.Errorf("rootfs %s does not exist", c.Rootfs))
		}
		return errdefs.System(errors.Wrapf(err, "stat rootfs %s", c.Rootfs))
	}
	if !fi.IsDir() {
		return errdefs.InvalidParameter(errors.Errorf("rootfs %s is not a directory", c.Rootfs))
	}
	for _, kv := range c.Env {
		if k, _, _ := strings.Cut(kv, "="); k == "" {
			return errdefs.InvalidParameter(errors.Errorf("invalid environment variable: %s", kv))
		}
	}
	return nil
}

// Cgroup derives the cgroup description of the container.
func (c Config) Cgroup() *Cgroup {
	return &Cgroup{
		Name: c.Hostname,
		Resources: &Resources{
			Memory:    int64(c.MemoryLimit * mib),
			PidsLimit: int64(c.ProcessLimit),
		},
	}
}

// ProcessEnv returns the environment of the container program. PATH and
// HOSTNAME are filled in when Env does not set them.
func (c Config) ProcessEnv() []string {
	env := append([]string(nil), c.Env...)
	var hasPath, hasHostname bool
	for _, kv := range env {
		switch {
		case strings.HasPrefix(kv, "PATH="):
			hasPath = true
		case strings.HasPrefix(kv, "HOSTNAME="):
			hasHostname = true
		}
	}
	if !hasPath {
		env = append(env, "PATH="+DefaultPath)
	}
	if !hasHostname {
		env = append(env, "HOSTNAME="+c.Hostname)
	}
	return env
}
