package gammu

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
}

func TestProbe(t *testing.T) {
	r := &fakeRunner{answers: map[string]string{
		"at9600": identifyOutput,
		"at":     identifyOutput,
	}}

	report, err := Probe(context.Background(), r, "/dev/ttyUSB0", nil, ProbeOptions{
		TempDir: t.TempDir(),
		Now:     fixedNow,
	})
	if err != nil {
		t.Fatal(err)
	}

	if report.Connection != "at9600" {
		t.Errorf("wanted at9600, got %q", report.Connection)
	}
	if len(report.Results) != 3 {
		t.Fatalf("wanted all 3 connections tested, got %d", len(report.Results))
	}

	var tests = []struct {
		connection string
		section    string
		success    bool
	}{
		{"at115200", "gammu", false},
		{"at9600", "gammu1", true},
		{"at", "gammu2", true},
	}
	for i, tt := range tests {
		res := report.Results[i]
		if res.Connection != tt.connection || res.Section != tt.section || res.Success != tt.success {
			t.Errorf("%d: wanted %+v, got %+v", i, tt, res)
		}
	}
	if !strings.Contains(report.Results[0].ErrorDetails, "No response") {
		t.Errorf("unexpected error details %q", report.Results[0].ErrorDetails)
	}
	if report.AllFailed() {
		t.Error("report should not be all failed")
	}
}

func TestProbeAllFailed(t *testing.T) {
	r := &fakeRunner{}
	report, err := Probe(context.Background(), r, "/dev/ttyUSB0", []string{"at", "at19200"}, ProbeOptions{TempDir: t.TempDir()})

	var perr *ProbeError
	if !errors.As(err, &perr) {
		t.Fatalf("wanted *ProbeError, got %v", err)
	}
	if perr.Device != "/dev/ttyUSB0" || len(perr.Tried) != 2 {
		t.Errorf("unexpected error %+v", perr)
	}
	if !report.AllFailed() || len(report.Results) != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestProbeHandshake(t *testing.T) {
	r := &fakeRunner{answers: map[string]string{
		"at115200": identifyOutput,
		"at9600":   identifyOutput,
	}}

	var shook []string
	handshake := func(_ context.Context, device, conn string) error {
		shook = append(shook, conn)
		if conn == "at115200" {
			return errors.New("no response")
		}
		return nil
	}

	report, err := Probe(context.Background(), r, "/dev/ttyUSB0", nil, ProbeOptions{
		TempDir:   t.TempDir(),
		Handshake: handshake,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Connection != "at9600" {
		t.Errorf("wanted at9600, got %q", report.Connection)
	}
	if len(shook) != 2 {
		t.Errorf("handshake should only run after identify succeeded, ran for %v", shook)
	}
	if report.Results[0].Exception != "no response" {
		t.Errorf("unexpected exception %q", report.Results[0].Exception)
	}
}

func TestWriteProbeLog(t *testing.T) {
	report := &ProbeReport{
		Device: "/dev/ttyUSB0",
		Time:   fixedNow(),
		Results: []ProbeResult{
			{Connection: "at115200", Section: "gammu", Time: fixedNow(), Stderr: "timeout", ErrorDetails: "gammu identify failed: timeout"},
			{Connection: "at9600", Section: "gammu1", Time: fixedNow(), Success: true, Stdout: "Manufacturer : Huawei"},
		},
	}

	var b strings.Builder
	if err := WriteProbeLog(&b, report); err != nil {
		t.Fatal(err)
	}
	got := b.String()

	for _, want := range []string{
		"Gammu Connection Probe Log\n",
		"Timestamp: 2025-03-01 12:30:00 UTC\n",
		"Device: /dev/ttyUSB0\n",
		"Connection: at115200 (section: [gammu])\n",
		"Success: false\n",
		"stderr:\ntimeout\n",
		"Error Details:\ngammu identify failed: timeout\n",
		"Connection: at9600 (section: [gammu1])\n",
		"stdout:\nManufacturer : Huawei\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Exception:") {
		t.Error("empty exception written")
	}
}

func TestSection(t *testing.T) {
	for i, want := range []string{"gammu", "gammu1", "gammu2"} {
		if got := Section(i); got != want {
			t.Errorf("%d: wanted %q, got %q", i, want, got)
		}
	}
}
