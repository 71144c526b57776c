package cgroups

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	cgControllersFile = "cgroup.controllers"
	cgStCtlFile       = "cgroup.subtree_control"
)

// neededControllers lists the controllers the configured limits rely on.
func (m *manager) neededControllers() []string {
	var ctrs []string
	if isMemorySet(m.config.Resources) {
		ctrs = append(ctrs, "memory")
	}
	if isPidsSet(m.config.Resources) {
		ctrs = append(ctrs, "pids")
	}
	return ctrs
}

// enableControllers 在根目录的cgroup.subtree_control中开启所需的controller，
// 否则子目录中不会出现memory.max和pids.max。失败时只记录日志，后续写入限制
// 时会报告真正的错误。
func (m *manager) enableControllers() {
	needed := m.neededControllers()
	if len(needed) == 0 {
		return
	}
	log := logrus.WithField("cgroup", m.root)

	avail, err := ReadFile(m.root, cgControllersFile)
	if err != nil {
		log.Debugf("unable to read %s: %v", cgControllersFile, err)
		return
	}
	enabled, err := ReadFile(m.root, cgStCtlFile)
	if err != nil {
		log.Debugf("unable to read %s: %v", cgStCtlFile, err)
		return
	}
	availSet := fieldSet(avail)
	enabledSet := fieldSet(enabled)

	var req []string
	for _, c := range needed {
		if _, ok := enabledSet[c]; ok {
			continue
		}
		if _, ok := availSet[c]; !ok {
			log.Debugf("controller %s is not available", c)
			continue
		}
		req = append(req, "+"+c)
	}
	if len(req) == 0 {
		return
	}
	if err := WriteFile(m.root, cgStCtlFile, strings.Join(req, " ")); err != nil {
		log.Debugf("unable to enable controllers %v: %v", req, err)
	}
}

func fieldSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
