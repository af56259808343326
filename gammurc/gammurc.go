// Package gammurc renders the configuration file read by gammu.
//
// The rendered form is
//
//	[gammu]
//	port = /dev/ttyUSB0
//	connection = at
//
// The device path is written verbatim. gammu does not support quoting, so
// no escaping is applied.
package gammurc

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/lone-faerie/smsgateway/internal/file"
)

// A Section is one [gammu] or [gammuN] block.
type Section struct {
	Port       string
	Connection string
}

func (s Section) appendTo(b []byte, i int) []byte {
	b = append(b, "[gammu"...)
	if i > 0 {
		b = strconv.AppendInt(b, int64(i), 10)
	}
	b = append(b, "]\nport = "...)
	b = append(b, s.Port...)
	b = append(b, "\nconnection = "...)
	b = append(b, s.Connection...)
	return append(b, '\n')
}

// Render returns the configuration for a single device and connection.
func Render(port, connection string) ([]byte, error) {
	return Sections(Section{port, connection})
}

// Sections renders sections in order as [gammu], [gammu1], [gammu2], ...
// separated by blank lines. gammu uses the first as the default and the
// rest with "gammu -s N".
func Sections(sections ...Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, errors.New("gammurc: no sections")
	}

	var b []byte
	for i, s := range sections {
		if i > 0 {
			b = append(b, '\n')
		}
		b = s.appendTo(b, i)
	}
	return b, nil
}

// Write renders the configuration to w.
func Write(w io.Writer, port, connection string) error {
	b, err := Render(port, connection)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteFile renders the configuration to the file name, replacing it.
func WriteFile(name, port, connection string) error {
	b, err := Render(port, connection)
	if err != nil {
		return err
	}
	return file.WriteFile(name, b, 0o644)
}

// Parse reads the sections of a configuration in order. Unknown keys and
// sections not named gammu or gammuN are ignored.
func Parse(data []byte) ([]Section, error) {
	var (
		sections []Section
		cur      *Section
	)
	for line := range bytes.Lines(data) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0, line[0] == '#', line[0] == ';':
			continue
		case line[0] == '[':
			name, ok := bytes.CutSuffix(line[1:], []byte("]"))
			if !ok {
				return nil, errors.New("gammurc: malformed section header " + strconv.Quote(string(line)))
			}
			cur = nil
			if isSectionName(string(name)) {
				sections = append(sections, Section{})
				cur = &sections[len(sections)-1]
			}
			continue
		}
		if cur == nil {
			continue
		}
		key, value, ok := bytes.Cut(line, []byte("="))
		if !ok {
			continue
		}
		switch string(bytes.ToLower(bytes.TrimSpace(key))) {
		case "port", "device":
			cur.Port = string(bytes.TrimSpace(value))
		case "connection":
			cur.Connection = string(bytes.TrimSpace(value))
		}
	}
	return sections, nil
}

func isSectionName(name string) bool {
	n, ok := strings.CutPrefix(strings.ToLower(name), "gammu")
	if !ok {
		return false
	}
	if n == "" {
		return true
	}
	_, err := strconv.Atoi(n)
	return err == nil
}
