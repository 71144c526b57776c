package utils

import (
	"bytes"
	"testing"

	"golang.org/x/sys/unix"
)

func TestCleanPath(t *testing.T) {
	path := CleanPath("")
	if path != "" {
		t.Errorf("expected to receive empty string and received %s", path)
	}

	path = CleanPath("rootfs")
	if path != "rootfs" {
		t.Errorf("expected to receive 'rootfs' and received %s", path)
	}
	path = CleanPath("/../../../var")
	if path != "/var" {
		t.Errorf("expected to receive '/var' and received %s", path)
	}
	path = CleanPath("../memory.max")
	if path != "memory.max" {
		t.Errorf("expected to receive 'memory.max' and received %s", path)
	}
}

func TestNewSockPair(t *testing.T) {
	parent, child, err := NewSockPair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer parent.Close()
	defer child.Close()

	for _, f := range []struct {
		name string
		fd   uintptr
	}{{"parent", parent.Fd()}, {"child", child.Fd()}} {
		flags, err := unix.FcntlInt(f.fd, unix.F_GETFD, 0)
		if err != nil {
			t.Fatal(err)
		}
		if flags&unix.FD_CLOEXEC == 0 {
			t.Errorf("%s end is not close-on-exec", f.name)
		}
	}

	// packets keep their boundaries
	if _, err := parent.Write([]byte{'r'}); err != nil {
		t.Fatal(err)
	}
	if _, err := parent.Write([]byte("second")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	n, err := child.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || buf[0] != 'r' {
		t.Errorf("expected a single byte packet, got %q", buf[:n])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"pid": 1}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `{"pid":1}` {
		t.Errorf("unexpected output %q", buf.String())
	}
}
