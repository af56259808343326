// Package file provides the small filesystem helpers used for device nodes,
// sysfs attributes and the files written by the bootstrap.
package file

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Exists reports whether name exists. Symlinks are followed, so a dangling
// /dev/serial/by-id link does not exist.
func Exists(name string) bool {
	var st unix.Stat_t
	return unix.Stat(name, &st) == nil
}

// IsCharDevice reports whether name is a character device, as serial ports
// are.
func IsCharDevice(name string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(name, &st); err != nil {
		return false, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return st.Mode&unix.S_IFMT == unix.S_IFCHR, nil
}

// IsNotExist reports whether err indicates a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
