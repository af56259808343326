// Package modem talks AT commands directly to the modem's serial port.
package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/lone-faerie/smsgateway/log"
)

const (
	// DefaultBaud is used for the plain "at" connection.
	DefaultBaud = 115200
	// DefaultTimeout bounds a single command.
	DefaultTimeout = 5 * time.Second

	readTimeout = 200 * time.Millisecond
)

var (
	// ErrNoResponse is returned when the modem sent no final result code in
	// time.
	ErrNoResponse = errors.New("modem: no response")
	// ErrUnsupported is returned for connections that are not AT over a
	// serial line.
	ErrUnsupported = errors.New("modem: unsupported connection")
)

// CommandError is a final result code of ERROR, +CME ERROR or +CMS ERROR.
type CommandError struct {
	Command string
	Result  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("modem: %s: %s", e.Command, e.Result)
}

// BaudRate returns the line speed of a gammu AT connection, such as
// "at115200" or "at9600". A plain "at" is [DefaultBaud].
func BaudRate(connection string) (int, error) {
	rest, ok := strings.CutPrefix(strings.ToLower(connection), "at")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, connection)
	}
	if rest == "" {
		return DefaultBaud, nil
	}
	baud, err := strconv.Atoi(rest)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, connection)
	}
	return baud, nil
}

// Conn is an AT command session.
type Conn struct {
	rw      io.ReadWriter
	timeout time.Duration
}

// NewConn returns a session over rw. rw should return from Read
// periodically even without data, as a serial port with a read timeout does.
func NewConn(rw io.ReadWriter, timeout time.Duration) *Conn {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Conn{rw: rw, timeout: timeout}
}

// Open opens the serial port name at the speed of connection.
func Open(name, connection string, timeout time.Duration) (*Conn, error) {
	baud, err := BaudRate(connection)
	if err != nil {
		return nil, err
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, err
	}
	return NewConn(p, timeout), nil
}

// Close closes the underlying port, if it can be closed.
func (c *Conn) Close() error {
	if cl, ok := c.rw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Command sends cmd terminated by a carriage return and returns the
// response lines before the final OK. Echoed commands and blank lines are
// dropped.
func (c *Conn) Command(ctx context.Context, cmd string) ([]string, error) {
	log.Trace("Sending AT command", "command", cmd)
	if _, err := io.WriteString(c.rw, cmd+"\r"); err != nil {
		return nil, fmt.Errorf("modem: write %s: %w", cmd, err)
	}

	deadline := time.Now().Add(c.timeout)
	var (
		lines   []string
		pending []byte
		buf     [256]byte
	)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return lines, err
		}

		n, err := c.rw.Read(buf[:])
		pending = append(pending, buf[:n]...)

		for {
			i := strings.IndexAny(string(pending), "\r\n")
			if i < 0 {
				break
			}
			line := strings.TrimSpace(string(pending[:i]))
			pending = pending[i+1:]

			switch {
			case line == "", line == cmd:
				continue
			case line == "OK":
				log.Trace("AT response", "command", cmd, "lines", lines)
				return lines, nil
			case isError(line):
				return lines, &CommandError{Command: cmd, Result: line}
			}
			lines = append(lines, line)
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return lines, fmt.Errorf("modem: read: %w", err)
		}
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return lines, ErrNoResponse
}

func isError(line string) bool {
	return line == "ERROR" ||
		strings.HasPrefix(line, "+CME ERROR") ||
		strings.HasPrefix(line, "+CMS ERROR")
}

// Ping opens device at the speed of connection and checks that the modem
// answers "AT" with OK.
func Ping(ctx context.Context, device, connection string, timeout time.Duration) error {
	c, err := Open(device, connection, timeout)
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = c.Command(ctx, "AT")
	return err
}

// Handshake returns a function pinging the modem with timeout, suitable
// for probing connections.
func Handshake(timeout time.Duration) func(ctx context.Context, device, connection string) error {
	return func(ctx context.Context, device, connection string) error {
		return Ping(ctx, device, connection, timeout)
	}
}
