package smsgateway

import (
	"errors"
	"slices"
	"testing"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/internal/cleanup"
)

func TestHandoff(t *testing.T) {
	var (
		gotPath string
		gotArgv []string
		gotEnv  []string
	)
	execve = func(path string, argv []string, env []string) error {
		gotPath, gotArgv, gotEnv = path, argv, env
		return nil
	}
	t.Cleanup(func() { execve = defaultExecve })

	t.Setenv("MQTT_HOST", "stale")
	cfg := config.Default()
	cfg.Device.Path = "/dev/ttyACM0"
	cfg.Exec.Command = []string{"/bin/sh", "-c", "exec python3 /app/gammu_mqtt.py"}

	if err := Handoff(cfg, "--verbose"); err != nil {
		t.Fatal(err)
	}

	if gotPath != "/bin/sh" {
		t.Errorf("wanted /bin/sh, got %q", gotPath)
	}
	wantArgv := []string{"/bin/sh", "-c", "exec python3 /app/gammu_mqtt.py", "--verbose"}
	if !slices.Equal(gotArgv, wantArgv) {
		t.Errorf("wanted argv %q, got %q", wantArgv, gotArgv)
	}
	for _, kv := range []string{
		"MQTT_HOST=core-mosquitto",
		"MQTT_PORT=1883",
		"MQTT_USER=",
		"MQTT_PASSWORD=",
		"SERIAL_DEVICE=/dev/ttyACM0",
		"LOG_LEVEL=info",
	} {
		if !slices.Contains(gotEnv, kv) {
			t.Errorf("environment missing %q", kv)
		}
	}
	if slices.Contains(gotEnv, "MQTT_HOST=stale") {
		t.Error("stale MQTT_HOST passed on")
	}
	if len(cfg.Exec.Command) != 3 {
		t.Error("Handoff modified the configured command")
	}
}

func TestHandoffErrors(t *testing.T) {
	errExec := errors.New("exec format error")
	execve = func(string, []string, []string) error { return errExec }
	t.Cleanup(func() { execve = defaultExecve })

	var cleanedUp bool
	cleanup.Register(func() { cleanedUp = true })
	t.Cleanup(cleanup.Cleanup)

	cfg := config.Default()
	cfg.Exec.Command = []string{"/bin/sh"}
	if err := Handoff(cfg); !errors.Is(err, errExec) {
		t.Errorf("wanted exec error, got %v", err)
	}
	if cleanedUp {
		t.Error("cleanup ran before a failed exec")
	}

	cfg.Exec.Command = nil
	if err := Handoff(cfg); err == nil {
		t.Error("expected error for empty command")
	}

	cfg.Exec.Command = []string{"/nonexistent/gammu_mqtt"}
	if err := Handoff(cfg); err == nil {
		t.Error("expected error for missing application")
	}
}
