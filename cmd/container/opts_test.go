package container

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/docker/docker/errdefs"
	"github.com/spf13/pflag"
)

func parseArgs(t *testing.T, rootfs string, args ...string) (config.Config, error) {
	t.Helper()
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	copts := addFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	copts.Rootfs = rootfs
	if rest := flags.Args(); len(rest) > 0 {
		copts.Command = rest[0]
		copts.Args = rest[1:]
	}
	return parse(copts)
}

func TestParseDefaults(t *testing.T) {
	rootfs := t.TempDir()
	c, err := parseArgs(t, rootfs)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hostname != config.DefaultHostname || c.Command != config.DefaultCommand {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.MemoryLimit != config.DefaultMemoryLimit {
		t.Errorf("expected the default memory limit, got %d", c.MemoryLimit)
	}
	if c.ProcessLimit != 0 {
		t.Errorf("expected no pids limit, got %d", c.ProcessLimit)
	}
	defaults := config.DefaultCapabilities()
	sort.Strings(defaults)
	if !reflect.DeepEqual(c.Capabilities, defaults) {
		t.Errorf("unexpected capabilities %v", c.Capabilities)
	}
}

func TestParseFlags(t *testing.T) {
	rootfs := t.TempDir()
	envFile := filepath.Join(t.TempDir(), "env")
	if err := os.WriteFile(envFile, []byte("FROM_FILE=1\nMODE=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := parseArgs(t, rootfs,
		"--hostname", "box",
		"-m", "64m",
		"--pids-limit", "16",
		"--env-file", envFile,
		"-e", "MODE=flag",
		"--cap-drop", "ALL",
		"--cap-add", "net_bind_service",
		"sh", "-c", "exit 7",
	)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hostname != "box" {
		t.Errorf("unexpected hostname %q", c.Hostname)
	}
	if c.MemoryLimit != 64 || c.Cgroup().Memory != 67108864 {
		t.Errorf("unexpected memory limit %d", c.MemoryLimit)
	}
	if c.ProcessLimit != 16 {
		t.Errorf("unexpected pids limit %d", c.ProcessLimit)
	}
	if c.Command != "sh" || !reflect.DeepEqual(c.Args, []string{"-c", "exit 7"}) {
		t.Errorf("unexpected command %q %q", c.Command, c.Args)
	}
	if expected := []string{"FROM_FILE=1", "MODE=file", "MODE=flag"}; !reflect.DeepEqual(c.Env, expected) {
		t.Errorf("expected env %v, got %v", expected, c.Env)
	}
	if expected := []string{"CAP_NET_BIND_SERVICE"}; !reflect.DeepEqual(c.Capabilities, expected) {
		t.Errorf("expected capabilities %v, got %v", expected, c.Capabilities)
	}
}

func TestParseErrors(t *testing.T) {
	rootfs := t.TempDir()
	cases := []struct {
		name string
		args []string
	}{
		{"negative pids", []string{"--pids-limit", "-1"}},
		{"unknown capability", []string{"--cap-add", "CAP_MAKE_COFFEE"}},
		{"bad hostname", []string{"--hostname", "a/b"}},
		{"missing env file", []string{"--env-file", filepath.Join(rootfs, "missing")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parseArgs(t, rootfs, c.args...)
			if !errdefs.IsInvalidParameter(err) {
				t.Errorf("expected an invalid parameter error, got %v", err)
			}
		})
	}

	if _, err := parseArgs(t, filepath.Join(rootfs, "missing")); !errdefs.IsNotFound(err) {
		t.Errorf("expected not found for a missing rootfs, got %v", err)
	}
}
