package file

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const maxAttrSize = 4096

// ReadString reads the named sysfs style attribute file and returns its
// contents with surrounding whitespace removed.
func ReadString(name string) (string, error) {
	fd, err := unix.Open(name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", &os.PathError{Op: "open", Path: name, Err: err}
	}
	defer unix.Close(fd)

	var buf [maxAttrSize]byte
	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return "", &os.PathError{Op: "read", Path: name, Err: err}
	}
	return string(bytes.TrimSpace(buf[:n])), nil
}

// ReadLower is like [ReadString] but lowercases the contents.
func ReadLower(name string) (string, error) {
	s, err := ReadString(name)
	return strings.ToLower(s), err
}

// FindUp looks for name in dir and its parents, stopping at stop, and
// returns the first directory containing it.
func FindUp(dir, name, stop string) (string, bool) {
	for {
		if Exists(filepath.Join(dir, name)) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if dir == stop || parent == dir {
			return "", false
		}
		dir = parent
	}
}
