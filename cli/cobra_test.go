package cli

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newTestRoot() (root, run *cobra.Command) {
	root = &cobra.Command{Use: "nsrun", RunE: func(*cobra.Command, []string) error { return nil }}
	SetupRootCommand(root)
	run = &cobra.Command{Use: "run ROOTFS", Short: "Run a command in a new container", RunE: func(*cobra.Command, []string) error { return nil }}
	run.Flags().BoolP("detach", "d", false, "Run in the background")
	root.AddCommand(run,
		&cobra.Command{Use: "init", Hidden: true, Run: func(*cobra.Command, []string) {}},
	)
	return root, run
}

func TestRootUsage(t *testing.T) {
	root, _ := newTestRoot()
	usage := root.UsageString()

	for _, want := range []string{"nsrun [OPTIONS] COMMAND", "Commands:", "Run a command in a new container", "Global Options:", "--log-format", "Exit Status:"} {
		if !strings.Contains(usage, want) {
			t.Errorf("root usage is missing %q:\n%s", want, usage)
		}
	}
	for _, unwanted := range []string{"init", "Management Commands"} {
		if strings.Contains(usage, unwanted) {
			t.Errorf("root usage should not contain %q:\n%s", unwanted, usage)
		}
	}
}

func TestCommandUsage(t *testing.T) {
	_, run := newTestRoot()
	usage := run.UsageString()

	if !strings.Contains(usage, "nsrun run ROOTFS") || !strings.Contains(usage, "--detach") {
		t.Errorf("unexpected usage:\n%s", usage)
	}
	if strings.Contains(usage, "Exit Status:") {
		t.Errorf("exit status table belongs to the root usage only:\n%s", usage)
	}
}

func TestFlagErrorFunc(t *testing.T) {
	_, run := newTestRoot()
	if err := FlagErrorFunc(run, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	err := FlagErrorFunc(run, errors.New("unknown flag: --nope"))
	var sterr StatusError
	if !errors.As(err, &sterr) {
		t.Fatalf("expected a status error, got %v", err)
	}
	if sterr.StatusCode != 125 || !strings.Contains(sterr.Status, "See 'nsrun run --help'.") {
		t.Errorf("unexpected status error %+v", sterr)
	}
}

func TestRequiresMinArgs(t *testing.T) {
	_, run := newTestRoot()
	check := RequiresMinArgs(1)
	if err := check(run, []string{"./rootfs"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := check(run, nil); err == nil || !strings.Contains(err.Error(), "requires at least 1 argument") {
		t.Errorf("unexpected error: %v", err)
	}
}
