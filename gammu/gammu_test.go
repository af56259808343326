package gammu

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

const identifyOutput = `Device               : /dev/ttyUSB0
Manufacturer         : Huawei
Model                : E3372 (E3372)
Firmware             : 21.180.01.00.00
IMEI                 : 861234567890123
SIM IMSI             : 262011234567890
`

// fakeRunner answers identify per connection found in the GAMMURC file.
type fakeRunner struct {
	// answers maps a connection to its stdout. Missing connections fail.
	answers map[string]string
	calls   []string
	err     error
}

func (r *fakeRunner) Run(ctx context.Context, env []string, args ...string) ([]byte, []byte, error) {
	conn := ""
	for _, kv := range env {
		if path, ok := strings.CutPrefix(kv, EnvConfig+"="); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, err
			}
			for line := range strings.Lines(string(b)) {
				if v, ok := strings.CutPrefix(line, "connection = "); ok {
					conn = strings.TrimSpace(v)
				}
			}
		}
	}
	r.calls = append(r.calls, strings.Join(args, " ")+"@"+conn)

	if r.err != nil {
		return nil, []byte("Error opening device"), r.err
	}
	if out, ok := r.answers[conn]; ok {
		return []byte(out), nil, nil
	}
	return nil, []byte("No response in specified timeout"), errors.New("exit status 2")
}

func TestIdentify(t *testing.T) {
	var tests = []struct {
		name   string
		runner *fakeRunner
		marker string
		ok     bool
	}{
		{"success", &fakeRunner{answers: map[string]string{"": identifyOutput}}, "", true},
		{"no marker", &fakeRunner{answers: map[string]string{"": "Device : /dev/ttyUSB0\n"}}, "", false},
		{"custom marker", &fakeRunner{answers: map[string]string{"": "IMEI : 1\n"}}, "IMEI", true},
		{"exit status", &fakeRunner{err: errors.New("exit status 1")}, "", false},
	}
	for _, tt := range tests {
		res := Identify(context.Background(), tt.runner, IdentifyOptions{Marker: tt.marker})
		if res.OK != tt.ok {
			t.Errorf("%s: wanted ok=%v, got %+v", tt.name, tt.ok, res)
		}
		if !res.OK && res.Err == nil {
			t.Errorf("%s: failure without error", tt.name)
		}
		if len(tt.runner.calls) != 1 || !strings.HasPrefix(tt.runner.calls[0], "identify@") {
			t.Errorf("%s: wanted one identify call, got %v", tt.name, tt.runner.calls)
		}
	}
}

func TestIdentifyNoMarker(t *testing.T) {
	r := &fakeRunner{answers: map[string]string{"": "nothing useful"}}
	res := Identify(context.Background(), r, IdentifyOptions{})
	if !errors.Is(res.Err, ErrNoMarker) {
		t.Errorf("wanted ErrNoMarker, got %v", res.Err)
	}
}

func TestParseIdentity(t *testing.T) {
	id := ParseIdentity(identifyOutput)
	want := Identity{
		Manufacturer: "Huawei",
		Model:        "E3372 (E3372)",
		Firmware:     "21.180.01.00.00",
		IMEI:         "861234567890123",
		IMSI:         "262011234567890",
	}
	if id != want {
		t.Errorf("wanted %+v, got %+v", want, id)
	}
}

func TestExecRunner(t *testing.T) {
	r := &ExecRunner{Binary: "/bin/sh"}
	stdout, _, err := r.Run(context.Background(), []string{"PROBE_TEST=1"}, "-c", "echo Manufacturer $PROBE_TEST")
	if err != nil {
		t.Skip("no shell available:", err)
	}
	if got := strings.TrimSpace(string(stdout)); got != "Manufacturer 1" {
		t.Errorf("wanted %q, got %q", "Manufacturer 1", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err = r.Run(ctx, nil, "-c", "sleep 5"); err == nil {
		t.Error("expected error after timeout")
	}
}
