package cgroups

import "github.com/DeJeune/nsrun/runtime/config"

func isPidsSet(r *config.Resources) bool {
	return r != nil && r.PidsLimit > 0
}

func setPids(dirPath string, r *config.Resources) error {
	if !isPidsSet(r) {
		return nil
	}
	return WriteFile(dirPath, "pids.max", numToStr(r.PidsLimit))
}
