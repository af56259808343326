package diagnostics

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/lone-faerie/smsgateway/device"
	"github.com/lone-faerie/smsgateway/gammu"
)

var runTime = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func probeReport() *gammu.ProbeReport {
	return &gammu.ProbeReport{
		Device: "/dev/ttyUSB0",
		Time:   runTime,
		Results: []gammu.ProbeResult{
			{Connection: "at115200", Section: "gammu", Time: runTime, Stderr: strings.Repeat("x", 1500), ErrorDetails: "gammu identify failed"},
			{Connection: "at9600", Section: "gammu1", Time: runTime, Success: true, Stdout: "Manufacturer : Huawei"},
		},
		Connection: "at9600",
	}
}

func TestReportKeys(t *testing.T) {
	r := New(runTime)
	r.SetSelection("", device.Selection{
		Path:   "/dev/ttyUSB0",
		Reason: device.ReasonSingle,
		Info:   &device.Info{Path: "/dev/ttyUSB0", Vendor: "12d1"},
	})
	r.SetProbe(probeReport())

	b, err := r.MarshalIndent()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err = json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"timestamp",
		"device",
		"successful_connection",
		"all_failed",
		"tested_connections",
		"selection_reason",
		"configured_device",
		"device_info",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if got["timestamp"] != "2025-03-01 12:30:00 UTC" {
		t.Errorf("unexpected timestamp %v", got["timestamp"])
	}
	if got["configured_device"] != nil {
		t.Errorf("wanted null configured_device, got %v", got["configured_device"])
	}
	if got["successful_connection"] != "at9600" || got["all_failed"] != false {
		t.Errorf("unexpected result %v / %v", got["successful_connection"], got["all_failed"])
	}

	info := got["device_info"].(map[string]any)
	if info["vendor"] != "12d1" || info["model"] != "unknown" {
		t.Errorf("unexpected device info %v", info)
	}

	tested := got["tested_connections"].([]any)
	first := tested[0].(map[string]any)
	if n := len(first["stderr"].(string)); n != maxOutput {
		t.Errorf("stderr not truncated, %d bytes", n)
	}
	if first["exception"] != nil || first["device_path"] != "/dev/ttyUSB0" {
		t.Errorf("unexpected connection %v", first)
	}
}

func TestTruncate(t *testing.T) {
	var tests = []struct {
		name string
		in   string
		want int
	}{
		{"short", "Manufacturer : Huawei", 21},
		{"ascii", strings.Repeat("x", maxOutput+10), maxOutput},
		{"split rune", strings.Repeat("x", maxOutput-1) + "é", maxOutput - 1},
		{"whole rune", strings.Repeat("x", maxOutput-2) + "éé", maxOutput},
	}
	for _, tt := range tests {
		got := truncate(tt.in)
		if len(got) != tt.want {
			t.Errorf("%s: wanted %d bytes, got %d", tt.name, tt.want, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: invalid UTF-8 %q", tt.name, got[len(got)-4:])
		}
	}
}

func TestReportAllFailed(t *testing.T) {
	r := New(runTime)
	if !r.AllFailed || r.Connection() != "" {
		t.Fatal("new report should be all failed")
	}

	r.SetIdentify("at", gammu.IdentifyResult{Err: errors.New("exit status 1")})
	if !r.AllFailed {
		t.Error("failed identify marked report successful")
	}
	if r.Identify == nil || r.Identify.Error != "exit status 1" {
		t.Errorf("unexpected identify %+v", r.Identify)
	}

	r.SetIdentify("at", gammu.IdentifyResult{OK: true, Stdout: "Manufacturer : Huawei\nIMEI : 123\n"})
	if r.AllFailed || r.Connection() != "at" {
		t.Errorf("wanted working connection at, got %q", r.Connection())
	}
	if m := r.ModemInfo(); m.IMEI != "123" || m.Manufacturer != "Huawei" {
		t.Errorf("unexpected modem info %+v", m)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sms_gateway_diagnostics.json")
	r := New(runTime)
	r.Device = "/dev/ttyUSB0"
	if err := r.Save(path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err = json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != r.RunID || got.Device != "/dev/ttyUSB0" || !got.AllFailed {
		t.Errorf("unexpected saved report %+v", got)
	}
}

func TestAppendProbeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gammu.log")
	for range 2 {
		if err := AppendProbeLog(path, probeReport()); err != nil {
			t.Fatal(err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(b), "Gammu Connection Probe Log"); n != 2 {
		t.Errorf("wanted 2 appended logs, got %d", n)
	}
}
