package cgroups

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DeJeune/nsrun/runtime/pkg/userns"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	CgroupProcesses   = "cgroup.procs"
	UnifiedMountpoint = "/sys/fs/cgroup"
)

var (
	isUnifiedOnce sync.Once
	isUnified     bool
)

// IsCgroup2UnifiedMode reports whether /sys/fs/cgroup is a cgroup v2 mount.
func IsCgroup2UnifiedMode() bool {
	isUnifiedOnce.Do(func() {
		var st unix.Statfs_t
		err := unix.Statfs(UnifiedMountpoint, &st)
		if err != nil {
			level := logrus.WarnLevel
			if os.IsNotExist(err) && userns.RunningInUserNS() {
				// For rootless containers, sweep it under the rug.
				level = logrus.DebugLevel
			}
			logrus.StandardLogger().Logf(level,
				"statfs %s: %v; assuming cgroup v1", UnifiedMountpoint, err)
		}
		isUnified = st.Type == unix.CGROUP2_SUPER_MAGIC
	})
	return isUnified
}

// WriteCgroupProc 写入pid到cgroup的cgroup.procs文件
func WriteCgroupProc(dir string, pid int) error {
	if dir == "" {
		return fmt.Errorf("no such directory for %s", CgroupProcesses)
	}

	file, err := OpenFile(dir, CgroupProcesses, os.O_WRONLY)
	if err != nil {
		return fmt.Errorf("failed to write %v: %w", pid, err)
	}
	defer file.Close()

	for i := 0; i < 5; i++ {
		_, err = file.WriteString(strconv.Itoa(pid))
		if err == nil {
			return nil
		}
		// 可能写入任务还没有创建完全
		if errors.Is(err, unix.EINVAL) {
			time.Sleep(30 * time.Millisecond)
			continue
		}
		break
	}
	return fmt.Errorf("failed to write %v: %w", pid, err)
}

// readPids parses a cgroup.procs style file, one pid per line.
func readPids(dir string) ([]int, error) {
	contents, err := ReadFile(dir, CgroupProcesses)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, line := range strings.Fields(contents) {
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, &ParseError{Path: dir, File: CgroupProcesses, Err: err}
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// numToStr renders a limit for a cgroup v2 *.max file. Zero means unset.
func numToStr(value int64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatInt(value, 10)
}

// 记录解析错误
type ParseError struct {
	Path string
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return "unable to parse " + e.Path + "/" + e.File + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
