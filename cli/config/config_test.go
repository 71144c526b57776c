package config

import (
	"testing"
)

func TestCgroupRootFromEnv(t *testing.T) {
	t.Cleanup(resetCgroupRoot)
	resetCgroupRoot()
	t.Setenv(EnvOverrideCgroupRoot, "/sys/fs/cgroup/nsrun/")

	if root := CgroupRoot(); root != "/sys/fs/cgroup/nsrun" {
		t.Errorf("expected the environment override, got %q", root)
	}
}

func TestSetCgroupRootWins(t *testing.T) {
	t.Cleanup(resetCgroupRoot)
	resetCgroupRoot()
	t.Setenv(EnvOverrideCgroupRoot, "/from/env")

	SetCgroupRoot("/from/flag")
	if root := CgroupRoot(); root != "/from/flag" {
		t.Errorf("expected the flag value, got %q", root)
	}
}

func TestCgroupRootDefault(t *testing.T) {
	t.Cleanup(resetCgroupRoot)
	resetCgroupRoot()
	t.Setenv(EnvOverrideCgroupRoot, "")

	if root := CgroupRoot(); root != DefaultCgroupRoot() {
		t.Errorf("expected %q, got %q", DefaultCgroupRoot(), root)
	}
}
