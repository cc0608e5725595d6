// Package slot implements the A/B partition controller: reading and
// writing the bootloader's "next boot" variable, and mounting/unmounting
// the inactive slot's block device.
package slot

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"iota-cli/internal/ioerr"
)

// VarName is the bootloader environment variable that selects the
// partition booted next.
const VarName = "rootfs_part"

// BootEnv reads and writes the bootloader's persistent environment. The
// production implementation shells out to U-Boot's fw_printenv/fw_setenv;
// tests use an in-memory stand-in.
type BootEnv interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

// FwEnv is the production BootEnv backed by the fw_printenv/fw_setenv
// tools that ship with U-Boot on devices using a UBI-backed environment.
type FwEnv struct{}

// Get reads a bootloader environment variable via `fw_printenv -n <name>`,
// stripping the trailing newline the tool always emits.
func (FwEnv) Get(name string) (string, error) {
	out, err := exec.Command("fw_printenv", "-n", name).Output()
	if err != nil {
		return "", ioerr.NewSlotError("get-active", "", fmt.Errorf("%w: %v", ioerr.ErrBootenv, err))
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}

// Set writes a bootloader environment variable via `fw_setenv <name>
// <value>`. Success is declared only when the command exits zero.
func (FwEnv) Set(name, value string) error {
	cmd := exec.Command("fw_setenv", name, value)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return ioerr.NewSlotError("set-next-boot", value, fmt.Errorf("%w: %v: %s", ioerr.ErrBootenv, err, stderr.String()))
	}
	return nil
}

// MemEnv is an in-memory BootEnv for tests.
type MemEnv struct {
	vars map[string]string
}

// NewMemEnv creates a MemEnv, optionally seeded with rootfs_part=initial.
func NewMemEnv(initial string) *MemEnv {
	m := &MemEnv{vars: map[string]string{}}
	if initial != "" {
		m.vars[VarName] = initial
	}
	return m
}

func (m *MemEnv) Get(name string) (string, error) {
	v, ok := m.vars[name]
	if !ok {
		return "", ioerr.NewSlotError("get-active", "", ioerr.ErrBootenv)
	}
	return v, nil
}

func (m *MemEnv) Set(name, value string) error {
	m.vars[name] = value
	return nil
}
