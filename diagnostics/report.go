// Package diagnostics records what the bootstrap found out about the modem
// and publishes it for Home Assistant.
package diagnostics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lone-faerie/smsgateway/device"
	"github.com/lone-faerie/smsgateway/discovery"
	"github.com/lone-faerie/smsgateway/gammu"
	"github.com/lone-faerie/smsgateway/internal/file"
	"github.com/lone-faerie/smsgateway/log"
)

// maxOutput is the number of bytes of gammu output kept per connection.
const maxOutput = 1000

// DeviceInfo is the USB metadata of the selected device.
type DeviceInfo struct {
	Vendor       string `json:"vendor"`
	Product      string `json:"product"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Serial       string `json:"serial,omitempty"`
	ByIDPath     string `json:"by_id_path,omitempty"`
}

// Connection is the outcome of testing one gammu connection.
type Connection struct {
	Connection   string  `json:"connection"`
	Section      string  `json:"section"`
	Success      bool    `json:"success"`
	Timestamp    string  `json:"timestamp"`
	Stdout       string  `json:"stdout"`
	Stderr       string  `json:"stderr"`
	Exception    *string `json:"exception"`
	DevicePath   string  `json:"device_path"`
	ErrorDetails *string `json:"error_details"`
}

// Identify is the outcome of the final "gammu identify".
type Identify struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Identity *gammu.Identity `json:"identity,omitempty"`
}

// Report is the diagnostics of one bootstrap run. It is written to
// /data/sms_gateway_diagnostics.json and published to MQTT.
type Report struct {
	RunID                string       `json:"run_id"`
	Timestamp            string       `json:"timestamp"`
	Device               string       `json:"device"`
	SuccessfulConnection *string      `json:"successful_connection"`
	AllFailed            bool         `json:"all_failed"`
	TestedConnections    []Connection `json:"tested_connections"`
	SelectionReason      string       `json:"selection_reason"`
	ConfiguredDevice     *string      `json:"configured_device"`
	DeviceInfo           *DeviceInfo  `json:"device_info,omitempty"`
	Identify             *Identify    `json:"identify,omitempty"`
}

// New returns an empty report for a run at now. Until a working connection
// is recorded the report is all failed.
func New(now time.Time) *Report {
	return &Report{
		RunID:             uuid.NewString(),
		Timestamp:         now.UTC().Format(gammu.TimeFormat),
		AllFailed:         true,
		TestedConnections: []Connection{},
	}
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// truncate cuts s to at most maxOutput bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	i := maxOutput
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}

// SetSelection records how the device was chosen.
func (r *Report) SetSelection(configured string, sel device.Selection) {
	r.ConfiguredDevice = ptr(configured)
	r.SelectionReason = sel.Reason
	if sel.Path != "" {
		r.Device = sel.Path
	}
	if sel.Info != nil {
		r.DeviceInfo = &DeviceInfo{
			Vendor:       orUnknown(sel.Info.Vendor),
			Product:      orUnknown(sel.Info.Product),
			Model:        orUnknown(sel.Info.Model),
			Manufacturer: sel.Info.Manufacturer,
			Serial:       sel.Info.Serial,
			ByIDPath:     sel.Info.ByIDPath,
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// SetProbe records the connections tested by [gammu.Probe].
func (r *Report) SetProbe(p *gammu.ProbeReport) {
	r.Device = p.Device
	for _, res := range p.Results {
		r.TestedConnections = append(r.TestedConnections, Connection{
			Connection:   res.Connection,
			Section:      res.Section,
			Success:      res.Success,
			Timestamp:    res.Time.UTC().Format(gammu.TimeFormat),
			Stdout:       truncate(res.Stdout),
			Stderr:       truncate(res.Stderr),
			Exception:    ptr(res.Exception),
			DevicePath:   p.Device,
			ErrorDetails: ptr(res.ErrorDetails),
		})
	}
	if !p.AllFailed() {
		r.setWorking(p.Connection)
	}
}

// SetIdentify records the final smoke test using connection.
func (r *Report) SetIdentify(connection string, res gammu.IdentifyResult) {
	r.Identify = &Identify{OK: res.OK}
	if res.Err != nil {
		r.Identify.Error = res.Err.Error()
	}
	if res.OK {
		id := gammu.ParseIdentity(res.Stdout)
		r.Identify.Identity = &id
		r.setWorking(connection)
	}
}

func (r *Report) setWorking(connection string) {
	if r.SuccessfulConnection == nil {
		r.SuccessfulConnection = &connection
	}
	r.AllFailed = false
}

// Connection returns the working connection, or "".
func (r *Report) Connection() string {
	if r.SuccessfulConnection == nil {
		return ""
	}
	return *r.SuccessfulConnection
}

// ModemInfo returns what the report knows about the modem, for discovery.
func (r *Report) ModemInfo() discovery.ModemInfo {
	m := discovery.ModemInfo{Path: r.Device}
	if d := r.DeviceInfo; d != nil {
		m.Serial = d.Serial
		m.Manufacturer = d.Manufacturer
		if d.Vendor != "unknown" {
			m.Vendor = d.Vendor
		}
		if d.Product != "unknown" {
			m.Product = d.Product
		}
		if d.Model != "unknown" {
			m.Model = d.Model
		}
	}
	if r.Identify != nil && r.Identify.Identity != nil {
		id := r.Identify.Identity
		m.IMEI = id.IMEI
		m.Firmware = id.Firmware
		if id.Manufacturer != "" {
			m.Manufacturer = id.Manufacturer
		}
		if id.Model != "" {
			m.Model = id.Model
		}
	}
	return m
}

// MarshalIndent returns the indented JSON encoding of r.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Save writes r as JSON to path, creating its directory if needed.
func (r *Report) Save(path string) error {
	b, err := r.MarshalIndent()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err = file.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return err
	}
	log.Info("Saved diagnostics", "path", path)
	return nil
}

// AppendProbeLog appends the account of p to the log file at path.
func AppendProbeLog(path string, p *gammu.ProbeReport) error {
	f, err := file.Append(path)
	if err != nil {
		return err
	}
	err = gammu.WriteProbeLog(f, p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		log.Info("Saved probe log", "path", path)
	}
	return err
}
