package cgroups

import "github.com/DeJeune/nsrun/runtime/config"

func isMemorySet(r *config.Resources) bool {
	return r != nil && r.Memory > 0
}

func setMemory(dirPath string, r *config.Resources) error {
	if !isMemorySet(r) {
		return nil
	}
	return WriteFile(dirPath, "memory.max", numToStr(r.Memory))
}
