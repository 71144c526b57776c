package cgroups

import (
	"os"

	"golang.org/x/sys/unix"
)

// removePath removes an empty cgroup directory. The kernel refuses with
// EBUSY while the cgroup still has members.
func removePath(dir string) error {
	if TestMode {
		return removeFake(dir)
	}
	if err := unix.Rmdir(dir); err != nil {
		return &os.PathError{Op: "rmdir", Path: dir, Err: err}
	}
	return nil
}

// removeFake mirrors rmdir on cgroupfs for a fake hierarchy made of regular
// files: the control files go away with the directory, members keep it busy.
func removeFake(dir string) error {
	pids, err := readPids(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(pids) > 0 {
		return &os.PathError{Op: "rmdir", Path: dir, Err: unix.EBUSY}
	}
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
