package log

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
)

// A Level is the importance or severity of a log event.
// The higher the level, the more important or severe the event.
type Level slog.Level

// Names for common levels. LevelTrace, LevelNotice and LevelFatal exist so
// that every level accepted by the add-on's log_level option has a home.
const (
	LevelTrace    = Level(slog.LevelDebug - 4)
	LevelDebug    = Level(slog.LevelDebug)
	LevelInfo     = Level(slog.LevelInfo)
	LevelNotice   = Level(slog.LevelInfo + 2)
	LevelWarn     = Level(slog.LevelWarn)
	LevelError    = Level(slog.LevelError)
	LevelFatal    = Level(slog.LevelError + 4)
	LevelDisabled = Level(1<<31 - 1)
)

// String returns a name for the level.
// If the level has a name, then that name
// in uppercase is returned.
// If the level is between named values, then
// an integer is appended to the uppercased name.
// Examples:
//
//	LevelWarn.String() => "WARN"
//	LevelTrace.String() => "TRACE"
func (l Level) String() string {
	switch {
	case l >= LevelDisabled:
		return "DISABLED"
	case l == LevelTrace:
		return "TRACE"
	case l == LevelNotice:
		return "NOTICE"
	case l == LevelFatal:
		return "FATAL"
	}

	return slog.Level(l).String()
}

// AddonName returns the Home Assistant add-on name of the level, one of
// "trace", "debug", "info", "notice", "warning", "error" and "fatal".
// Levels without an add-on name return the lowercased [Level.String].
func (l Level) AddonName() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelNotice:
		return "notice"
	case LevelWarn:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return strings.ToLower(l.String())
}

// MarshalJSON implements [encoding/json.Marshaler]
// by quoting the output of [Level.String].
func (l Level) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, l.String()), nil
}

// UnmarshalJSON implements [encoding/json.Unmarshaler].
// It accepts any string accepted by [Level.UnmarshalText].
func (l *Level) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

// AppendText implements [encoding.TextAppender]
// by calling [Level.String].
func (l Level) AppendText(b []byte) ([]byte, error) {
	return append(b, l.String()...), nil
}

// MarshalText implements [encoding.TextMarshaler]
// by calling [Level.AppendText].
func (l Level) MarshalText() ([]byte, error) {
	return l.AppendText(nil)
}

// UnmarshalText implements [encoding.TextUnmarshaler].
// It accepts any string produced by [Level.MarshalText], ignoring case,
// as well as the Home Assistant add-on levels "trace", "notice",
// "warning" and "fatal". An empty value is [LevelInfo].
// It also accepts numeric offsets that would result in a different string on
// output. For example, "Error-8" would marshal as "INFO".
func (l *Level) UnmarshalText(data []byte) (err error) {
	switch string(bytes.ToLower(bytes.TrimSpace(data))) {
	case "":
		*l = LevelInfo
	case "disable", "disabled", "false", "off":
		*l = LevelDisabled
	case "trace":
		*l = LevelTrace
	case "notice":
		*l = LevelNotice
	case "warning":
		*l = LevelWarn
	case "fatal", "critical":
		*l = LevelFatal
	default:
		err = (*slog.Level)(l).UnmarshalText(data)
	}

	return
}

// ParseLevel parses s with [Level.UnmarshalText].
func ParseLevel(s string) (Level, error) {
	var l Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// Level returns the receiver as a [slog.Level].
// It implements [slog.Leveler].
func (l Level) Level() slog.Level { return slog.Level(l) }

// LevelFlag implements the interfaces needed to be used as a command-line flag.
type LevelFlag Level

func (lf *LevelFlag) String() string {
	return (Level)(*lf).String()
}

func (lf *LevelFlag) Set(s string) error {
	return lf.UnmarshalText([]byte(s))
}

func (lf *LevelFlag) Get() any {
	return (Level)(*lf)
}

func (lf *LevelFlag) Type() string {
	return "level"
}

func (lf *LevelFlag) UnmarshalText(b []byte) error {
	return (*Level)(lf).UnmarshalText(b)
}
