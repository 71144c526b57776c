package container

import (
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
)

// setupLoopback brings up lo in the new network namespace. It is the only
// interface a container gets.
func setupLoopback() error {
	lo, err := netlink.LinkByName("lo")
	if err != nil {
		return errors.Wrap(err, "find loopback")
	}
	if err := netlink.LinkSetUp(lo); err != nil {
		return errors.Wrap(err, "set loopback up")
	}
	return nil
}
