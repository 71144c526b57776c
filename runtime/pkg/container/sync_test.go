package container

import (
	"errors"
	"io"
	"testing"
)

func TestSyncRoundTrip(t *testing.T) {
	parent, child, err := newSyncSockpair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer parent.Close()
	defer child.Close()

	if err := writeSync(parent, procRun); err != nil {
		t.Fatal(err)
	}
	if err := readSync(child, procRun); err != nil {
		t.Fatal(err)
	}
}

func TestSyncClosedBeforeRelease(t *testing.T) {
	parent, child, err := newSyncSockpair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer child.Close()

	parent.Close()
	err = readSync(child, procRun)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

func TestSyncUnexpectedPacket(t *testing.T) {
	parent, child, err := newSyncSockpair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer parent.Close()
	defer child.Close()

	if _, err := parent.WritePacket([]byte{'x'}); err != nil {
		t.Fatal(err)
	}
	if err := readSync(child, procRun); err == nil {
		t.Error("expected an error for a foreign sync byte")
	}
	if _, err := parent.WritePacket([]byte("rr")); err != nil {
		t.Fatal(err)
	}
	if err := readSync(child, procRun); err == nil {
		t.Error("expected an error for a two byte packet")
	}
}

func TestSyncSocketDoubleClose(t *testing.T) {
	parent, child, err := newSyncSockpair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer child.Close()
	if err := parent.Close(); err != nil {
		t.Fatal(err)
	}
	if err := parent.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}
