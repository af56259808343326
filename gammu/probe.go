package gammu

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lone-faerie/smsgateway/gammurc"
	"github.com/lone-faerie/smsgateway/log"
)

// DefaultConnections are the connections probed when none are given.
var DefaultConnections = []string{"at115200", "at9600", "at"}

// A ProbeResult is the outcome of probing one connection.
type ProbeResult struct {
	Connection string    `json:"connection"`
	Section    string    `json:"section"`
	Success    bool      `json:"success"`
	Time       time.Time `json:"-"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	// Exception is the error of the AT handshake, if it failed.
	Exception string `json:"exception,omitempty"`
	// ErrorDetails explains why the connection failed.
	ErrorDetails string `json:"error_details,omitempty"`
}

// A ProbeReport is the outcome of [Probe].
type ProbeReport struct {
	Device  string
	Time    time.Time
	Results []ProbeResult
	// Connection is the first working connection, or empty.
	Connection string
}

// AllFailed reports whether no connection worked.
func (r *ProbeReport) AllFailed() bool {
	return r.Connection == ""
}

// ProbeError is returned by [Probe] when no connection worked.
type ProbeError struct {
	Device string
	Tried  []string
}

func (e *ProbeError) Error() string {
	return "no working gammu connection for " + e.Device + " (tried " + strings.Join(e.Tried, ", ") + ")"
}

// A Handshake talks to the modem at device directly using connection.
type Handshake func(ctx context.Context, device, connection string) error

// ProbeOptions configures [Probe].
type ProbeOptions struct {
	// Marker and Timeout are passed on to [Identify] for each connection.
	Marker  string
	Timeout time.Duration
	// TempDir holds the temporary configuration files. The default is
	// [os.TempDir].
	TempDir string
	// Handshake, if not nil, runs after a successful identify. The
	// connection only works if both succeed.
	Handshake Handshake
	// Now returns the current time. The default is [time.Now].
	Now func() time.Time
}

// Section returns the configuration section name of the i'th probed
// connection.
func Section(i int) string {
	if i == 0 {
		return "gammu"
	}
	return "gammu" + strconv.Itoa(i)
}

// Probe tries each connection against device in order, using a temporary
// configuration passed to gammu through GAMMURC. Every connection is
// tried even after one works, so the report is complete. The first working
// connection is reported in [ProbeReport.Connection]. If none worked the
// error is a [*ProbeError].
func Probe(ctx context.Context, r Runner, device string, connections []string, opts ProbeOptions) (*ProbeReport, error) {
	if len(connections) == 0 {
		connections = DefaultConnections
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log.Info("Probing gammu connections", "device", device, "connections", connections)

	report := &ProbeReport{Device: device, Time: now().UTC()}
	for i, conn := range connections {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := probeOne(ctx, r, device, conn, Section(i), opts)
		res.Time = now().UTC()
		report.Results = append(report.Results, res)

		if res.Success && report.Connection == "" {
			report.Connection = conn
			log.Info("Found working connection", "connection", conn)
		}
	}

	if report.AllFailed() {
		log.Warn("No working gammu connection found", "device", device)
		return report, &ProbeError{Device: device, Tried: connections}
	}
	return report, nil
}

func probeOne(ctx context.Context, r Runner, device, conn, section string, opts ProbeOptions) ProbeResult {
	res := ProbeResult{Connection: conn, Section: section}

	rc, err := writeTempConfig(opts.TempDir, device, conn)
	if err != nil {
		res.ErrorDetails = "failed to generate config: " + err.Error()
		return res
	}
	defer os.Remove(rc)

	id := Identify(ctx, r, IdentifyOptions{
		Marker:  opts.Marker,
		Timeout: opts.Timeout,
		Env:     []string{EnvConfig + "=" + rc},
	})
	res.Stdout, res.Stderr = id.Stdout, id.Stderr
	if !id.OK {
		res.ErrorDetails = "gammu identify failed: " + errorText(id)
		log.Debug("Connection failed at identify", "connection", conn, "error", id.Err)
		return res
	}

	if opts.Handshake != nil {
		if err = opts.Handshake(ctx, device, conn); err != nil {
			res.Exception = err.Error()
			res.ErrorDetails = "AT handshake failed"
			log.Debug("Connection failed at handshake", "connection", conn, "error", err)
			return res
		}
	}

	res.Success = true
	return res
}

func errorText(id IdentifyResult) string {
	if s := strings.TrimSpace(id.Stderr); s != "" {
		return s
	}
	if id.Err != nil {
		return id.Err.Error()
	}
	return "unknown error"
}

func writeTempConfig(dir, device, conn string) (string, error) {
	b, err := gammurc.Render(device, conn)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "gammurc_try-*.ini")
	if err != nil {
		return "", err
	}
	_, err = f.Write(b)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

const (
	heavyRule = "============================================================\n"
	lightRule = "----------------------------------------\n"
)

// WriteProbeLog writes a human readable account of report to w, in the
// format appended to the probe log.
func WriteProbeLog(w io.Writer, report *ProbeReport) error {
	var b strings.Builder

	b.WriteString("\n" + heavyRule)
	b.WriteString("Gammu Connection Probe Log\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", report.Time.UTC().Format(TimeFormat))
	fmt.Fprintf(&b, "Device: %s\n", report.Device)
	b.WriteString(heavyRule + "\n")

	for _, res := range report.Results {
		fmt.Fprintf(&b, "Connection: %s (section: [%s])\n", res.Connection, res.Section)
		fmt.Fprintf(&b, "Timestamp: %s\n", res.Time.UTC().Format(TimeFormat))
		fmt.Fprintf(&b, "Success: %t\n", res.Success)
		b.WriteString(lightRule)

		for _, s := range [...]struct{ title, text string }{
			{"stdout", res.Stdout},
			{"stderr", res.Stderr},
			{"Exception", res.Exception},
			{"Error Details", res.ErrorDetails},
		} {
			if s.text != "" {
				b.WriteString(s.title + ":\n" + s.text + "\n")
			}
		}
		b.WriteString(heavyRule + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
