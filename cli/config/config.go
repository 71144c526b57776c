package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/DeJeune/nsrun/runtime/pkg/cgroups"
)

const (
	// EnvOverrideCgroupRoot 覆盖默认的cgroup根目录
	EnvOverrideCgroupRoot = "NSRUN_CGROUP_ROOT"
)

var (
	cgroupRoot     string
	initCgroupRoot = new(sync.Once)
)

func resetCgroupRoot() {
	cgroupRoot = ""
	initCgroupRoot = new(sync.Once)
}

// DefaultCgroupRoot is the root used when neither the flag nor the
// environment names one.
func DefaultCgroupRoot() string {
	return cgroups.DefaultRoot()
}

// CgroupRoot 返回容器cgroup所在的父目录，只解析一次
func CgroupRoot() string {
	initCgroupRoot.Do(func() {
		cgroupRoot = os.Getenv(EnvOverrideCgroupRoot)
		if cgroupRoot == "" {
			cgroupRoot = DefaultCgroupRoot()
		}
		cgroupRoot = filepath.Clean(cgroupRoot)
	})
	return cgroupRoot
}

func SetCgroupRoot(dir string) {
	initCgroupRoot.Do(func() {})
	cgroupRoot = filepath.Clean(dir)
}
