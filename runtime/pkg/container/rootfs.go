package container

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/DeJeune/nsrun/runtime/config"
	"github.com/DeJeune/nsrun/runtime/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// hostDevices are bind mounted from the host into the container /dev.
var hostDevices = []string{"null", "zero", "full", "random", "urandom", "tty"}

// devSymlinks 在容器 /dev 中创建的符号链接
var devSymlinks = [][2]string{
	{"/proc/self/fd", "/dev/fd"},
	{"/proc/self/fd/0", "/dev/stdin"},
	{"/proc/self/fd/1", "/dev/stdout"},
	{"/proc/self/fd/2", "/dev/stderr"},
	{"pts/ptmx", "/dev/ptmx"},
}

// hostDev holds O_PATH descriptors of host device nodes, opened before the
// root changes so they can be bound in after /dev is replaced.
type hostDev struct {
	name string
	f    *os.File
}

func openHostDevices() []hostDev {
	var devs []hostDev
	for _, name := range hostDevices {
		path := filepath.Join("/dev", name)
		fd, err := unix.Open(path, unix.O_PATH|unix.O_CLOEXEC, 0)
		if err != nil {
			logrus.WithError(err).Debugf("skipping host device %s", path)
			continue
		}
		devs = append(devs, hostDev{name: name, f: os.NewFile(uintptr(fd), path)})
	}
	return devs
}

func closeHostDevices(devs []hostDev) {
	for _, d := range devs {
		_ = d.f.Close()
	}
}

// chrootTo makes every mount private to the new mount namespace, so nothing
// mounted below propagates back to the host, and changes the root to rootfs.
func chrootTo(rootfs string) error {
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return &os.PathError{Op: "make / rprivate", Path: "/", Err: err}
	}
	if err := unix.Chroot(rootfs); err != nil {
		return &os.PathError{Op: "chroot", Path: rootfs, Err: err}
	}
	return nil
}

// mountToRootfs mounts m inside the current root, creating the mount point
// when missing.
func mountToRootfs(m *config.Mount) error {
	dest := filepath.Join("/", utils.CleanPath(m.Destination))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrapf(err, "create mount point %s", dest)
	}
	if err := unix.Mount(m.Source, dest, m.Device, uintptr(m.Flags), m.Data); err != nil {
		return errors.Wrapf(err, "mount %s", m)
	}
	logrus.Debugf("mounted %s", m)
	return nil
}

// setupDev populates a freshly mounted /dev. Nothing here is fatal: a
// container without a working /dev/zero can still run its program.
func setupDev(devs []hostDev) {
	for _, d := range devs {
		dest := filepath.Join("/dev", d.name)
		if err := bindDevice(d.f, dest); err != nil {
			logrus.WithError(err).Warnf("unable to bind %s", dest)
		}
	}
	for _, link := range devSymlinks {
		if err := os.Symlink(link[0], link[1]); err != nil && !os.IsExist(err) {
			logrus.WithError(err).Warnf("unable to create %s", link[1])
		}
	}
}

func bindDevice(src *os.File, dest string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_RDONLY, 0o666)
	if err != nil {
		return err
	}
	_ = f.Close()
	source := "/proc/self/fd/" + strconv.Itoa(int(src.Fd()))
	if err := unix.Mount(source, dest, "", unix.MS_BIND, ""); err != nil {
		return &os.PathError{Op: "bind", Path: dest, Err: err}
	}
	return nil
}

// redirectStdio points stdin, stdout and stderr at devNull. The previous
// stderr is kept on a close-on-exec descriptor for diagnostics and returned.
func redirectStdio(devNull *os.File) (*os.File, error) {
	if devNull == nil {
		return nil, errors.New("/dev/null is not open")
	}
	errFd, err := unix.FcntlInt(uintptr(unix.Stderr), unix.F_DUPFD_CLOEXEC, 3)
	if err != nil {
		return nil, os.NewSyscallError("dup stderr", err)
	}
	for _, fd := range []int{unix.Stdin, unix.Stdout, unix.Stderr} {
		if err := unix.Dup3(int(devNull.Fd()), fd, 0); err != nil {
			return os.NewFile(uintptr(errFd), "stderr"), os.NewSyscallError("dup3", err)
		}
	}
	return os.NewFile(uintptr(errFd), "stderr"), nil
}
