package smsgateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/device"
	"github.com/lone-faerie/smsgateway/diagnostics"
	"github.com/lone-faerie/smsgateway/gammu"
	"github.com/lone-faerie/smsgateway/gammurc"
	"github.com/lone-faerie/smsgateway/internal/poll"
	"github.com/lone-faerie/smsgateway/log"
	"github.com/lone-faerie/smsgateway/modem"
)

// ErrDeviceTimeout is the cause of a [*WaitError].
var ErrDeviceTimeout = errors.New("serial device not found")

// WaitError is returned by [Bootstrap.Run] when the device never appeared.
type WaitError struct {
	Device   string
	Attempts int
	Timeout  time.Duration
	Err      error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("%s after %v (%d checks): %v", e.Device, e.Timeout, e.Attempts, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// Causes returns the likely reasons for the device not appearing.
func (e *WaitError) Causes() []string {
	return []string{
		"the modem is not plugged in",
		"the device is not passed through to the add-on",
		"the modem is still in USB storage mode",
		"the configured device " + e.Device + " is wrong",
	}
}

// A Publisher publishes the diagnostics of a run.
type Publisher interface {
	Publish(ctx context.Context, r *diagnostics.Report) error
}

// Bootstrap runs the startup sequence for Config.
type Bootstrap struct {
	Config *config.Config

	// Runner runs gammu. The default runs the configured binary.
	Runner gammu.Runner
	// Sleeper is used between device checks. The default sleeps in real
	// time, waking early on device creation if configured to.
	Sleeper poll.Sleeper
	// Scanner discovers serial devices. The default scans /dev and /sys.
	Scanner *device.Scanner
	// Publisher publishes the diagnostics when enabled. The default
	// connects to the configured broker.
	Publisher Publisher
	// Handshake checks a connection over the serial line when probing.
	// The default is an AT handshake, when enabled.
	Handshake gammu.Handshake
	// Now returns the current time. The default is [time.Now].
	Now func() time.Time
}

// New returns a Bootstrap for cfg with the default collaborators.
func New(cfg *config.Config) *Bootstrap {
	return &Bootstrap{Config: cfg}
}

// Result is the outcome of a successful [Bootstrap.Run].
type Result struct {
	// Config is the effective configuration, with the device and
	// connection that were settled on.
	Config *config.Config
	// Attempts is the number of device checks made.
	Attempts int
	// Selection is how the device was chosen.
	Selection device.Selection
	// Probe is the probe report, if probing was enabled.
	Probe *gammu.ProbeReport
	// Identify is the outcome of the smoke test.
	Identify gammu.IdentifyResult
	// Report is the diagnostics of the run.
	Report *diagnostics.Report
}

func (b *Bootstrap) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Bootstrap) runner() gammu.Runner {
	if b.Runner != nil {
		return b.Runner
	}
	return &gammu.ExecRunner{Binary: b.Config.Gammu.Binary}
}

func (b *Bootstrap) scanner() *device.Scanner {
	if b.Scanner != nil {
		return b.Scanner
	}
	return device.DefaultScanner
}

// Run executes the startup sequence. The only error not caused by ctx is a
// [*WaitError]. A failure to write the gammu configuration, a failing smoke
// test, probe or diagnostics step is logged and the run continues.
func (b *Bootstrap) Run(ctx context.Context) (*Result, error) {
	cfg := b.Config
	res := &Result{}
	report := diagnostics.New(b.now())

	cfg, res.Selection = b.selectDevice(cfg)
	configured := b.Config.Device.Path
	if b.Config.Device.Auto() {
		configured = ""
	}
	report.SetSelection(configured, res.Selection)

	writeConfig(cfg)

	if cfg.Device.FallbackScan && !device.Exists(cfg.Device.Path) {
		if p, ok := device.Fallback(cfg.Device.Fallbacks); ok {
			log.Warn("Configured device not found, using fallback", "configured", cfg.Device.Path, "device", p)
			cfg = cfg.WithDevice(p)
			writeConfig(cfg)
		}
	}
	report.Device = cfg.Device.Path

	n, err := b.wait(ctx, cfg)
	res.Attempts = n
	if err != nil {
		return nil, err
	}
	log.Info("Serial device ready", "device", cfg.Device.Path, "checks", n)

	if cfg.Gammu.Probe {
		cfg = b.probe(ctx, cfg, res, report)
	}

	res.Identify = b.smokeTest(ctx, cfg)
	report.SetIdentify(cfg.Gammu.Connection, res.Identify)

	b.saveDiagnostics(ctx, cfg, report)

	res.Config = cfg
	res.Report = report
	return res, nil
}

func (b *Bootstrap) selectDevice(cfg *config.Config) (*config.Config, device.Selection) {
	configured := cfg.Device.Path
	if cfg.Device.Auto() {
		configured = ""
	}
	if configured != "" && cfg.Device.ListPath == "" {
		return cfg, device.Selection{Path: configured, Reason: device.ReasonConfigured}
	}

	infos, err := b.scanner().Scan()
	if err != nil {
		log.Warn("Unable to scan serial devices", "error", err)
	}
	if cfg.Device.ListPath != "" {
		if err = device.SaveList(cfg.Device.ListPath, infos); err != nil {
			log.Warn("Unable to save device list", "path", cfg.Device.ListPath, "error", err)
		}
	}

	sel := device.Select(configured, infos)
	log.Info("Device selected", "device", sel.Path, "reason", sel.Reason)
	if sel.Path == "" {
		log.Warn("No device could be selected, configure the device option", "default", config.DefaultDevicePath)
		return cfg.WithDevice(config.DefaultDevicePath), sel
	}
	return cfg.WithDevice(sel.Path), sel
}

// writeConfig renders the gammu configuration of cfg. A failure is only
// logged, since the application can still be started.
func writeConfig(cfg *config.Config) bool {
	err := gammurc.WriteFile(cfg.Gammu.ConfigPath, cfg.Device.Path, cfg.Gammu.Connection)
	if err != nil {
		log.Warn("Unable to write gammu config", "path", cfg.Gammu.ConfigPath, "error", err)
		return false
	}
	log.Debug("Wrote gammu config", "path", cfg.Gammu.ConfigPath, "device", cfg.Device.Path, "connection", cfg.Gammu.Connection)
	return true
}

func (b *Bootstrap) wait(ctx context.Context, cfg *config.Config) (int, error) {
	attempts := cfg.Wait.Attempts()
	opts := []device.WaitOption{device.WithWatch(cfg.Wait.Watch)}
	if b.Sleeper != nil {
		opts = append(opts, device.WithSleeper(b.Sleeper))
	}

	log.Info("Waiting for serial device", "device", cfg.Device.Path, "timeout", cfg.Wait.Timeout)
	n, err := device.Wait(ctx, cfg.Device.Path, cfg.Wait.Interval, attempts, opts...)
	if errors.Is(err, device.ErrTimeout) {
		return n, &WaitError{
			Device:   cfg.Device.Path,
			Attempts: n,
			Timeout:  cfg.Wait.Timeout,
			Err:      ErrDeviceTimeout,
		}
	}
	return n, err
}

func (b *Bootstrap) probe(ctx context.Context, cfg *config.Config, res *Result, report *diagnostics.Report) *config.Config {
	handshake := b.Handshake
	if handshake == nil && cfg.Gammu.ATHandshake {
		handshake = modem.Handshake(cfg.Gammu.ProbeTimeout)
	}

	p, err := gammu.Probe(ctx, b.runner(), cfg.Device.Path, cfg.Gammu.ProbeConnections, gammu.ProbeOptions{
		Marker:    cfg.Gammu.SuccessMarker,
		Timeout:   cfg.Gammu.ProbeTimeout,
		Handshake: handshake,
		Now:       b.Now,
	})
	res.Probe = p
	if p != nil {
		report.SetProbe(p)
		if cfg.Diagnostics.ProbeLog != "" {
			if lerr := diagnostics.AppendProbeLog(cfg.Diagnostics.ProbeLog, p); lerr != nil {
				log.Warn("Unable to save probe log", "path", cfg.Diagnostics.ProbeLog, "error", lerr)
			}
		}
	}
	if err != nil {
		log.Warn("Connection probe failed, keeping configured connection", "connection", cfg.Gammu.Connection, "error", err)
		return cfg
	}

	if p.Connection == cfg.Gammu.Connection {
		return cfg
	}
	c := *cfg
	c.Gammu.Connection = p.Connection
	if !writeConfig(&c) {
		return cfg
	}
	return &c
}

func (b *Bootstrap) smokeTest(ctx context.Context, cfg *config.Config) gammu.IdentifyResult {
	log.Info("Testing modem", "device", cfg.Device.Path, "connection", cfg.Gammu.Connection)
	id := gammu.Identify(ctx, b.runner(), gammu.IdentifyOptions{
		Marker:  cfg.Gammu.SuccessMarker,
		Timeout: cfg.Gammu.IdentifyTimeout,
		Env:     []string{gammu.EnvConfig + "=" + cfg.Gammu.ConfigPath},
	})
	if id.OK {
		identity := gammu.ParseIdentity(id.Stdout)
		log.Info("Modem answered", "manufacturer", identity.Manufacturer, "model", identity.Model)
	} else {
		log.Warn("Modem did not answer gammu identify, starting anyway", "error", id.Err, "stderr", id.Stderr)
	}
	return id
}

func (b *Bootstrap) saveDiagnostics(ctx context.Context, cfg *config.Config, report *diagnostics.Report) {
	if cfg.Diagnostics.Enabled && cfg.Diagnostics.Path != "" {
		if err := report.Save(cfg.Diagnostics.Path); err != nil {
			log.Warn("Unable to save diagnostics", "path", cfg.Diagnostics.Path, "error", err)
		}
	}
	if !cfg.Diagnostics.Publish {
		return
	}

	pub := b.Publisher
	if pub == nil {
		pub = diagnostics.NewPublisher(cfg)
	}
	if err := pub.Publish(ctx, report); err != nil {
		log.Warn("Unable to publish diagnostics", "error", err)
	}
}
