package userns

import (
	"fmt"
	"os"
	"testing"

	"github.com/DeJeune/nsrun/runtime/config"
)

func TestUidMapInUserNS(t *testing.T) {
	cases := []struct {
		s        string
		expected bool
	}{
		{"", true},
		{"         0          0 4294967295", false},
		{"         0       1000          1", true},
		{"garbage", false},
	}
	for _, c := range cases {
		if got := uidMapInUserNS(c.s); got != c.expected {
			t.Errorf("uidMapInUserNS(%q): expected %v, got %v", c.s, c.expected, got)
		}
	}
}

func TestFromConfig(t *testing.T) {
	c := config.New("box", "/")
	m := FromConfig(&c)
	uids, gids := m.ToSys()
	if len(uids) != 1 || uids[0].ContainerID != 0 || uids[0].HostID != os.Geteuid() || uids[0].Size != 1 {
		t.Errorf("unexpected default uid mapping %+v", uids)
	}
	if len(gids) != 1 || gids[0].HostID != os.Getegid() {
		t.Errorf("unexpected default gid mapping %+v", gids)
	}

	c.UIDMappings = []config.IDMap{{ContainerID: 0, HostID: 100000, Size: 65536}}
	m = FromConfig(&c)
	if s := m.String(); s != fmt.Sprintf("uid=0:100000:65536;gid=0:%d:1", os.Getegid()) {
		t.Errorf("unexpected mapping %s", s)
	}
}
