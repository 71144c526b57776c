package userns

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/DeJeune/nsrun/runtime/config"
)

type Mapping struct {
	UIDMappings []config.IDMap
	GIDMappings []config.IDMap
}

// DefaultMapping maps root inside the container onto the caller's effective
// uid and gid, one id wide.
func DefaultMapping() Mapping {
	return Mapping{
		UIDMappings: []config.IDMap{{ContainerID: 0, HostID: int64(os.Geteuid()), Size: 1}},
		GIDMappings: []config.IDMap{{ContainerID: 0, HostID: int64(os.Getegid()), Size: 1}},
	}
}

// FromConfig returns the mappings of c, falling back to DefaultMapping for
// whichever side is empty.
func FromConfig(c *config.Config) Mapping {
	m := DefaultMapping()
	if len(c.UIDMappings) > 0 {
		m.UIDMappings = c.UIDMappings
	}
	if len(c.GIDMappings) > 0 {
		m.GIDMappings = c.GIDMappings
	}
	return m
}

// ToSys 将 Mapping 中的 UID 和 GID 映射转换为 syscall.SysProcIDMap，
// 交给 os/exec 在 clone 之后写入子进程的 uid_map 和 gid_map。
func (m Mapping) ToSys() (uids, gids []syscall.SysProcIDMap) {
	for _, uid := range m.UIDMappings {
		uids = append(uids, syscall.SysProcIDMap{
			ContainerID: int(uid.ContainerID),
			HostID:      int(uid.HostID),
			Size:        int(uid.Size),
		})
	}
	for _, gid := range m.GIDMappings {
		gids = append(gids, syscall.SysProcIDMap{
			ContainerID: int(gid.ContainerID),
			HostID:      int(gid.HostID),
			Size:        int(gid.Size),
		})
	}
	return
}

// EnableSetgroups reports whether setgroups(2) may stay allowed in the new
// namespace. Unprivileged callers must deny it before writing gid_map.
func EnableSetgroups() bool {
	return os.Geteuid() == 0
}

func (m Mapping) String() string {
	var uids, gids []string
	for _, idmap := range m.UIDMappings {
		uids = append(uids, fmt.Sprintf("%d:%d:%d", idmap.ContainerID, idmap.HostID, idmap.Size))
	}
	for _, idmap := range m.GIDMappings {
		gids = append(gids, fmt.Sprintf("%d:%d:%d", idmap.ContainerID, idmap.HostID, idmap.Size))
	}
	return "uid=" + strings.Join(uids, ",") + ";gid=" + strings.Join(gids, ",")
}
