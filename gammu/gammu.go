// Package gammu runs the gammu command-line tool to check that the modem
// answers.
package gammu

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/lone-faerie/smsgateway/log"
)

// EnvConfig is the environment variable gammu reads its configuration path
// from.
const EnvConfig = "GAMMURC"

// DefaultMarker is the text "gammu identify" prints when it reached the
// modem.
const DefaultMarker = "Manufacturer"

// TimeFormat is the layout of timestamps in reports and logs.
const TimeFormat = "2006-01-02 15:04:05 UTC"

// A Runner runs gammu with args. env is added to the process environment.
type Runner interface {
	Run(ctx context.Context, env []string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs the gammu binary found at Binary, or in $PATH.
type ExecRunner struct {
	Binary string
}

// Run implements [Runner]. A non-zero exit status is returned as an
// [*exec.ExitError].
func (r *ExecRunner) Run(ctx context.Context, env []string, args ...string) ([]byte, []byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "gammu"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Trace("Running gammu", "args", args, "env", env)
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// IdentifyOptions configures [Identify].
type IdentifyOptions struct {
	// Marker must appear in stdout. The default is [DefaultMarker].
	Marker string
	// Timeout bounds the command. Zero means no timeout.
	Timeout time.Duration
	// Env is added to the environment of gammu.
	Env []string
}

// IdentifyResult is the outcome of [Identify].
type IdentifyResult struct {
	// OK is true when gammu exited 0 and printed the marker.
	OK     bool
	Stdout string
	Stderr string
	// Err is the error of running gammu, if any.
	Err error
}

// ErrNoMarker is reported when gammu succeeded without printing the marker.
var ErrNoMarker = errors.New("gammu: identify output has no marker")

// Identify runs "gammu identify" once.
func Identify(ctx context.Context, r Runner, opts IdentifyOptions) IdentifyResult {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	stdout, stderr, err := r.Run(ctx, opts.Env, "identify")
	res := IdentifyResult{
		Stdout: string(stdout),
		Stderr: string(stderr),
		Err:    err,
	}
	if err == nil && ctx.Err() != nil {
		res.Err = ctx.Err()
	}
	switch {
	case res.Err != nil:
	case !strings.Contains(res.Stdout, marker):
		res.Err = ErrNoMarker
	default:
		res.OK = true
	}
	return res
}

// Identity is the modem description printed by "gammu identify".
type Identity struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	IMEI         string `json:"imei,omitempty"`
	IMSI         string `json:"imsi,omitempty"`
}

// ParseIdentity reads the "Key : value" lines of "gammu identify".
func ParseIdentity(stdout string) Identity {
	var id Identity
	for line := range strings.Lines(stdout) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Manufacturer":
			id.Manufacturer = value
		case "Model":
			id.Model = value
		case "Firmware":
			id.Firmware = value
		case "IMEI":
			id.IMEI = value
		case "SIM IMSI":
			id.IMSI = value
		}
	}
	return id
}
