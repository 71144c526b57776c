package container

import (
	"github.com/opencontainers/runtime-spec/specs-go"
)

// Status is the lifecycle position of a container.
type Status int

const (
	// Created 容器对象已创建，尚未启动
	Created Status = iota
	// SpawningChild cgroup已就绪，正在创建子进程
	SpawningChild
	// AwaitingBarrierRelease 子进程已存在，等待父进程完成cgroup加入并放行
	AwaitingBarrierRelease
	// ChildRunning 子进程已被放行
	ChildRunning
	// Reaped 子进程已退出并被回收
	Reaped
	// TornDown cgroup已被删除
	TornDown
	// Failed 启动或回收过程中出现不可恢复的错误
	Failed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case SpawningChild:
		return "spawning"
	case AwaitingBarrierRelease:
		return "awaiting-barrier"
	case ChildRunning:
		return "running"
	case Reaped:
		return "reaped"
	case TornDown:
		return "torn-down"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OCI maps the status onto the runtime-spec container states.
func (s Status) OCI() specs.ContainerState {
	switch s {
	case Created, SpawningChild:
		return specs.StateCreating
	case AwaitingBarrierRelease:
		return specs.StateCreated
	case ChildRunning:
		return specs.StateRunning
	default:
		return specs.StateStopped
	}
}

// canTransition lists the legal edges of the lifecycle.
func (s Status) canTransition(to Status) bool {
	switch to {
	case SpawningChild:
		return s == Created
	case AwaitingBarrierRelease:
		return s == SpawningChild
	case ChildRunning:
		return s == AwaitingBarrierRelease
	case Reaped:
		return s == ChildRunning
	case TornDown:
		return s == Reaped
	case Failed:
		return s == Created || s == SpawningChild || s == AwaitingBarrierRelease || s == ChildRunning || s == Reaped
	}
	return false
}
