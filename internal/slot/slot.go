package slot

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"iota-cli/internal/applog"
	"iota-cli/internal/ioerr"
)

// ID identifies one of the two A/B partitions.
type ID byte

const (
	A ID = 'a'
	B ID = 'b'
)

func (id ID) String() string { return string(id) }

// Valid reports whether id is A or B.
func (id ID) Valid() bool { return id == A || id == B }

// Complement returns the other slot.
func (id ID) Complement() ID {
	if id == A {
		return B
	}
	return A
}

// blockDevice maps a slot to its UBI volume device node.
func (id ID) blockDevice() string {
	if id == A {
		return "/dev/ubi0_0"
	}
	return "/dev/ubi0_1"
}

const (
	fsType          = "ubifs"
	mountPoint      = "/mnt/inactive_partition"
	procMountsPath  = "/proc/mounts"
	rootMountTarget = "/"
)

// View is the derived (active, inactive) pair computed from the
// bootloader's current selection.
type View struct {
	Active   ID
	Inactive ID
}

// Controller implements the slot operations in 4.5: reading/writing the
// bootloader variable and mounting/unmounting the inactive slot.
type Controller struct {
	env BootEnv
}

// NewController creates a Controller backed by env.
func NewController(env BootEnv) *Controller {
	return &Controller{env: env}
}

// GetActive reads rootfs_part and reports the selected slot. Any value
// other than "a" or "b" is reported as ioerr.ErrBadKey-style malformed
// state via ErrBootenv wrapped with the offending value.
func (c *Controller) GetActive() (ID, error) {
	v, err := c.env.Get(VarName)
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if v != "a" && v != "b" {
		return 0, ioerr.NewSlotError("get-active", v, fmt.Errorf("%w: malformed value %q", ioerr.ErrBootenv, v))
	}
	return ID(v[0]), nil
}

// GetInactive returns the complement of GetActive.
func (c *Controller) GetInactive() (ID, error) {
	active, err := c.GetActive()
	if err != nil {
		return 0, err
	}
	return active.Complement(), nil
}

// GetMounted determines which slot is mounted as the running root
// filesystem by matching the ":a"/":b" suffix on its mount-source device
// path in /proc/mounts.
func (c *Controller) GetMounted() (ID, error) {
	f, err := os.Open(procMountsPath)
	if err != nil {
		return 0, ioerr.NewFileError("open", procMountsPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[1] != rootMountTarget {
			continue
		}
		device := fields[0]
		switch {
		case strings.HasSuffix(device, ":a"):
			return A, nil
		case strings.HasSuffix(device, ":b"):
			return B, nil
		default:
			return 0, ioerr.NewSlotError("get-mounted", "", fmt.Errorf("%w: unrecognized root device %q", ioerr.ErrBootenv, device))
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, ioerr.NewFileError("read", procMountsPath, err)
	}
	return 0, ioerr.NewSlotError("get-mounted", "", fmt.Errorf("%w: root mount not found", ioerr.ErrBootenv))
}

// MountPoint returns the fixed mount point the inactive slot is mounted
// at.
func (c *Controller) MountPoint() string { return mountPoint }

// MountInactive mounts the inactive slot's block device at the fixed
// mount point. If already mounted, it returns ErrAlreadyActive and does
// not attempt a remount.
func (c *Controller) MountInactive() error {
	inactive, err := c.GetInactive()
	if err != nil {
		return err
	}

	if mounted, _ := isMounted(mountPoint); mounted {
		return ioerr.NewSlotError("mount", inactive.String(), ioerr.ErrAlreadyActive)
	}

	if err := os.MkdirAll(mountPoint, 0o755); err != nil {
		return ioerr.NewSlotError("mount", inactive.String(), fmt.Errorf("%w: mkdir: %v", ioerr.ErrMount, err))
	}

	if err := unix.Mount(inactive.blockDevice(), mountPoint, fsType, 0, ""); err != nil {
		return ioerr.NewSlotError("mount", inactive.String(), fmt.Errorf("%w: %v", ioerr.ErrMount, err))
	}
	return nil
}

// UnmountInactive syncs, lazily unmounts, and removes the mount directory.
// Idempotent: a missing directory or an already-unmounted point is not an
// error.
func (c *Controller) UnmountInactive() error {
	mounted, err := isMounted(mountPoint)
	if err != nil {
		return nil // mount state unknown (stat or /proc/mounts failed): leave it alone
	}
	if mounted {
		unix.Sync()
		if err := unix.Unmount(mountPoint, unix.MNT_DETACH); err != nil {
			applog.Warn("lazy unmount failed", applog.String("path", mountPoint), applog.Err(err))
		}
	}
	if err := os.Remove(mountPoint); err != nil && !os.IsNotExist(err) {
		applog.Warn("failed to remove mount directory", applog.String("path", mountPoint), applog.Err(err))
	}
	return nil
}

// SetNextBoot writes rootfs_part. Success is declared only when the
// underlying write succeeds.
func (c *Controller) SetNextBoot(id ID) error {
	if !id.Valid() {
		return ioerr.NewSlotError("set-next-boot", id.String(), ioerr.ErrInvalid)
	}
	return c.env.Set(VarName, id.String())
}

// isMounted reports whether path appears as a mount target in
// /proc/mounts. Returns an error only if /proc/mounts itself cannot be
// read; a missing directory at path is reported as (false, nil).
func isMounted(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	f, err := os.Open(procMountsPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == path {
			return true, nil
		}
	}
	return false, scanner.Err()
}
