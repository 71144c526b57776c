package capabilities

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/gocapability/capability"
)

var capabilityMap map[string]capability.Cap

func init() {
	capabilityMap = make(map[string]capability.Cap, capability.CAP_LAST_CAP+1)
	for _, c := range capability.List() {
		if c > capability.CAP_LAST_CAP {
			continue
		}
		capabilityMap["CAP_"+strings.ToUpper(c.String())] = c
	}
}

// capSlice 将capability名称转换为capability.Cap，未知的名称记录在unknownCaps中
func capSlice(caps []string, unknownCaps map[string]struct{}) []capability.Cap {
	var out []capability.Cap
	for _, c := range caps {
		if v, ok := capabilityMap[Normalize(c)]; !ok {
			unknownCaps[c] = struct{}{}
		} else {
			out = append(out, v)
		}
	}
	return out
}

// mapKeys returns the keys of input in sorted order
func mapKeys(input map[string]struct{}) []string {
	var keys []string
	for c := range input {
		keys = append(keys, c)
	}
	sort.Strings(keys)
	return keys
}

// Normalize turns "net_admin" or "NET_ADMIN" into "CAP_NET_ADMIN".
func Normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "CAP_") {
		name = "CAP_" + name
	}
	return name
}

// Known reports whether name is a capability of the running kernel.
func Known(name string) bool {
	_, ok := capabilityMap[Normalize(name)]
	return ok
}

// Merge drops and then adds capabilities to base, so a capability named in
// both lists is kept. "ALL" is accepted in either list: dropping ALL keeps
// only add, adding ALL keeps everything but drop.
func Merge(base, add, drop []string) []string {
	set := make(map[string]struct{}, len(base)+len(add))
	switch {
	case hasAll(drop):
	case hasAll(add):
		for name := range capabilityMap {
			set[name] = struct{}{}
		}
	default:
		for _, c := range base {
			set[Normalize(c)] = struct{}{}
		}
	}
	if !hasAll(drop) {
		for _, c := range drop {
			delete(set, Normalize(c))
		}
	}
	for _, c := range add {
		if n := Normalize(c); n != "CAP_ALL" {
			set[n] = struct{}{}
		}
	}
	return mapKeys(set)
}

func hasAll(caps []string) bool {
	for _, c := range caps {
		if Normalize(c) == "CAP_ALL" {
			return true
		}
	}
	return false
}

type Caps struct {
	pid      capability.Capabilities
	bounding []capability.Cap
}

// New 根据配置创建Caps，当前内核未知的capability会被忽略并打印警告
func New(bounding []string) (*Caps, error) {
	var (
		err error
		c   Caps
	)

	unknownCaps := make(map[string]struct{})
	c.bounding = capSlice(bounding, unknownCaps)
	if c.pid, err = capability.NewPid2(0); err != nil {
		return nil, err
	}
	if err = c.pid.Load(); err != nil {
		return nil, err
	}
	if len(unknownCaps) > 0 {
		logrus.Warn("ignoring unknown or unavailable capabilities: ", mapKeys(unknownCaps))
	}
	return &c, nil
}

// ApplyBoundingSet sets the capability bounding set to those specified in the whitelist.
// A root process that execs afterwards ends up with exactly this set.
func (c *Caps) ApplyBoundingSet() error {
	c.pid.Clear(capability.BOUNDING)
	c.pid.Set(capability.BOUNDING, c.bounding...)
	return c.pid.Apply(capability.BOUNDING)
}
