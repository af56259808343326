// Package secrets resolves "!secret name" values from the container's
// secrets directory.
package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Dir is the directory secrets are read from.
var Dir = "/run/secrets"

// Prefix is the the prefix of a string to indicate it should
// be substituted with the secret value. For example:
//
//	"!secret mqtt_password" -> /run/secrets/mqtt_password
const Prefix = "!secret "

// maxSize bounds a secret file. Passwords and tokens are far smaller.
const maxSize = 4096

var ErrTooLarge = errors.New("secret too large")

// CutPrefix is equivalent to [strings.CutPrefix](s, [Prefix])
func CutPrefix(s string) (secret string, ok bool) {
	secret, ok = strings.CutPrefix(s, Prefix)
	return strings.TrimSpace(secret), ok
}

// Read returns the value of the secret file <Dir>/<secret> with
// surrounding whitespace removed.
func Read(secret string) (string, error) {
	if secret == "" || strings.ContainsRune(secret, '/') {
		return "", fmt.Errorf("invalid secret name %q", secret)
	}

	fd, err := unix.Open(filepath.Join(Dir, secret), unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", secret, err)
	}
	defer unix.Close(fd)

	buf := make([]byte, maxSize+1)
	n := 0
	for n < len(buf) {
		m, err := unix.Read(fd, buf[n:])
		if err != nil {
			return "", fmt.Errorf("secret %s: %w", secret, err)
		}
		if m == 0 {
			break
		}
		n += m
	}
	if n > maxSize {
		return "", fmt.Errorf("secret %s: %w", secret, ErrTooLarge)
	}

	return string(bytes.TrimSpace(buf[:n])), nil
}

// MustRead returns the value of the secret file <Dir>/<secret>.
// If there is an error reading the file then MustRead returns fallback.
func MustRead(secret, fallback string) string {
	s, err := Read(secret)
	if err != nil {
		return fallback
	}
	return s
}
