package container

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/DeJeune/nsrun/runtime/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type syncType byte

// Exactly one message ever crosses the sync socket:
//
//	[  child  ]          [   parent   ]
//	                 --> cgroup.procs <- pid
//	block on read   <--  procRun
//	close                close
//
// The child must not touch its environment until procRun arrives, which is
// only written once the child is a member of its cgroup.
const (
	procRun syncType = 'r'
)

func (s syncType) String() string {
	switch s {
	case procRun:
		return "procRun"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(s))
	}
}

func writeSync(pipe *syncSocket, sync syncType) error {
	logrus.Debugf("writing sync %s", sync)
	n, err := pipe.WritePacket([]byte{byte(sync)})
	if err != nil {
		return fmt.Errorf("writing sync %v: %w", sync, err)
	}
	if n != 1 {
		return fmt.Errorf("writing sync %v: short write", sync)
	}
	return nil
}

func readSync(pipe *syncSocket, expected syncType) error {
	logrus.Debugf("reading sync")
	packet, err := pipe.ReadPacket()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("sync pipe closed before %v: %w", expected, io.ErrUnexpectedEOF)
		}
		return fmt.Errorf("reading sync %v: %w", expected, err)
	}
	if len(packet) != 1 {
		return fmt.Errorf("unexpected sync packet of %d bytes, expected %v", len(packet), expected)
	}
	if got := syncType(packet[0]); got != expected {
		return fmt.Errorf("unexpected synchronisation flag: got %v, expected %v", got, expected)
	}
	logrus.Debugf("read sync %s", expected)
	return nil
}

// closed 防止重复关闭文件描述符
type syncSocket struct {
	f      *os.File
	closed atomic.Bool
}

func newSyncSocket(f *os.File) *syncSocket {
	return &syncSocket{f: f}
}

func (s *syncSocket) File() *os.File {
	return s.f
}

func (s *syncSocket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	// Even with errors from Close(), we have to assume the pipe was closed.
	return s.f.Close()
}

func (s *syncSocket) WritePacket(b []byte) (int, error) {
	return s.f.Write(b)
}

// ReadPacket 先窥探数据包大小再读取，保证一次读完整个数据包
func (s *syncSocket) ReadPacket() ([]byte, error) {
	size, _, err := unix.Recvfrom(int(s.f.Fd()), nil, unix.MSG_TRUNC|unix.MSG_PEEK)
	if err != nil {
		return nil, fmt.Errorf("fetch packet length from socket: %w", err)
	}
	if size == 0 {
		return nil, io.EOF
	}
	buf := make([]byte, size)
	n, err := s.f.Read(buf)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("packet read too short: expected %d byte packet but only %d bytes read", size, n)
	}
	return buf, nil
}

func newSyncSockpair(name string) (parent, child *syncSocket, err error) {
	parentFile, childFile, err := utils.NewSockPair(name)
	if err != nil {
		return nil, nil, err
	}
	return newSyncSocket(parentFile), newSyncSocket(childFile), nil
}
