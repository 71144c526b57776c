package config

type Cgroup struct {
	// cgroup名称，同时是层级根目录下的目录名
	Name string `json:"name"`
	*Resources
}

type Resources struct {
	// Memory 以字节为单位，0表示不限制
	Memory int64 `json:"memory"`
	// PidsLimit 0表示不限制
	PidsLimit int64 `json:"pids_limit"`
}
