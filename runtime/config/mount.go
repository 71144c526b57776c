package config

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type Mount struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	// Device is the filesystem type passed to mount(2).
	Device string `json:"device"`
	Flags  int    `json:"flags"`
	Data   string `json:"data"`
}

func (m *Mount) String() string {
	return fmt.Sprintf("%s on %s type %s (flags=%#x, data=%q)", m.Source, m.Destination, m.Device, m.Flags, m.Data)
}

// DefaultMounts returns the pseudo-filesystems every container gets, in
// mount order.
func DefaultMounts() []*Mount {
	return []*Mount{
		{
			Source:      "proc",
			Destination: "/proc",
			Device:      "proc",
			Flags:       unix.MS_NOSUID | unix.MS_NODEV | unix.MS_NOEXEC,
		},
		{
			Source:      "tmpfs",
			Destination: "/dev",
			Device:      "tmpfs",
			Flags:       unix.MS_NOSUID | unix.MS_STRICTATIME,
			Data:        "mode=755",
		},
		{
			// gid=5 is left out since it is not mapped in a single entry user namespace
			Source:      "devpts",
			Destination: "/dev/pts",
			Device:      "devpts",
			Flags:       unix.MS_NOSUID | unix.MS_NOEXEC,
			Data:        "newinstance,ptmxmode=0666,mode=0620",
		},
	}
}
