package cgroups

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultRoot returns the hierarchy containers are created under. Root uses
// the top of the unified hierarchy; anybody else uses the cgroup they were
// started in, which is where systemd delegates to unprivileged users.
func DefaultRoot() string {
	if os.Geteuid() == 0 {
		return UnifiedMountpoint
	}
	own, err := parseCgroupFile("/proc/self/cgroup")
	if err != nil {
		logrus.Debugf("unable to find own cgroup, using %s: %v", UnifiedMountpoint, err)
		return UnifiedMountpoint
	}
	return filepath.Join(UnifiedMountpoint, filepath.Dir(own))
}

// containerPath joins root and name, refusing names that would escape root
// or nest below it.
func containerPath(root, name string) (string, error) {
	if root == "" {
		return "", errors.New("cgroup: no hierarchy root given")
	}
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("cgroup: invalid name %q", name)
	}
	return filepath.Join(filepath.Clean(root), name), nil
}

func parseCgroupFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return parseCgroupFromReader(f)
}

func parseCgroupFromReader(r io.Reader) (string, error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		var (
			text  = s.Text()
			parts = strings.SplitN(text, ":", 3)
		)
		if len(parts) < 3 {
			return "", fmt.Errorf("invalid cgroup entry: %q", text)
		}
		// text is like "0::/user.slice/user-1001.slice/session-1.scope"
		if parts[0] == "0" && parts[1] == "" {
			return parts[2], nil
		}
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", errors.New("cgroup path not found")
}
