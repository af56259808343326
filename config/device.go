package config

import "time"

// DeviceConfig is the configuration of the modem's serial device.
type DeviceConfig struct {
	// Path is the serial device node of the modem, exported as SERIAL_DEVICE.
	// The special values "" and "auto" select a device from the ones found
	// on the system. The default value is "", i.e. select automatically.
	Path string `yaml:"path"`
	// FallbackScan enables checking Fallbacks when Path does not exist.
	FallbackScan bool `yaml:"fallback_scan"`
	// Fallbacks are the paths checked, in order, by FallbackScan.
	Fallbacks []string `yaml:"fallbacks,omitempty"`
	// ListPath is where the list of discovered devices is written. If blank
	// the list is not written.
	ListPath string `yaml:"list_path"`
}

// DefaultDevicePath is used when no device is configured and none could be
// selected.
const DefaultDevicePath = "/dev/ttyUSB0"

var DefaultDevice = DeviceConfig{
	Fallbacks: []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2", "/dev/ttyACM0"},
	ListPath:  "/data/available_usb.json",
}

// Auto reports whether the device should be selected automatically.
func (cfg DeviceConfig) Auto() bool {
	return cfg.Path == "" || cfg.Path == "auto"
}

// GammuConfig is the configuration for the gammu command-line tool.
type GammuConfig struct {
	// Binary is the gammu executable. The default value is "gammu".
	Binary string `yaml:"binary"`
	// ConfigPath is where the gammu configuration is rendered. The default
	// value is "/etc/gammurc".
	ConfigPath string `yaml:"config_path"`
	// Connection is the connection keyword written to the configuration.
	// The default value is "at".
	Connection string `yaml:"connection"`
	// SuccessMarker must appear in the output of "gammu identify" for the
	// smoke test to pass. The default value is "Manufacturer".
	SuccessMarker string `yaml:"success_marker"`
	// IdentifyTimeout bounds the smoke test. A value of 0 (default) means
	// no timeout.
	IdentifyTimeout time.Duration `yaml:"identify_timeout"`
	// Probe enables testing each of ProbeConnections before the smoke test.
	// The first working connection replaces Connection.
	Probe bool `yaml:"probe"`
	// ProbeConnections are the connections tried, in order, when probing.
	ProbeConnections []string `yaml:"probe_connections,omitempty"`
	// ProbeTimeout bounds each probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// ATHandshake additionally talks AT directly to the serial port when
	// probing.
	ATHandshake bool `yaml:"at_handshake"`
}

var DefaultGammu = GammuConfig{
	Binary:           "gammu",
	ConfigPath:       "/etc/gammurc",
	Connection:       "at",
	SuccessMarker:    "Manufacturer",
	ProbeConnections: []string{"at115200", "at9600", "at"},
	ProbeTimeout:     5 * time.Second,
}

// DiagnosticsConfig is the configuration for the startup diagnostics report.
type DiagnosticsConfig struct {
	// Enabled writes the report to Path.
	Enabled bool `yaml:"enabled"`
	// Path of the JSON report. The default value is
	// "/data/sms_gateway_diagnostics.json".
	Path string `yaml:"path"`
	// ProbeLog is the file the probe output is appended to. The default
	// value is "/tmp/gammu.log".
	ProbeLog string `yaml:"probe_log"`
	// Publish also publishes the report to Topic on the broker.
	Publish bool `yaml:"publish"`
	// Topic is the topic the report is published to. The default value is
	// "sms-gateway/diagnostics".
	Topic string `yaml:"topic"`
	// Retained indicates if the report should be retained at the broker.
	Retained bool `yaml:"retained"`
	// QoS of the published report.
	QoS byte `yaml:"qos"`
}

var DefaultDiagnostics = DiagnosticsConfig{
	Enabled:  true,
	Path:     "/data/sms_gateway_diagnostics.json",
	ProbeLog: "/tmp/gammu.log",
	Topic:    "sms-gateway/diagnostics",
	Retained: true,
	QoS:      1,
}

// DiscoveryConfig is the configuration for performing MQTT discovery of the
// diagnostics sensors.
//
// See https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
type DiscoveryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Prefix is the discovery_prefix part of the discovery topic
	// in the form <discovery_prefix>/device/<node_id>/<object_id>/config.
	// The default value is "homeassistant"
	Prefix string `yaml:"prefix"`
	// NodeID is the node_id part of the discovery topic. It may only
	// consist of characters from [a-zA-Z0-9_-]. The default value is
	// "sms_gateway".
	NodeID string `yaml:"node_id"`
	// DeviceName is the name of the device in Home Assistant. The default
	// value is "SMS Gateway".
	DeviceName string `yaml:"device_name"`
	// Retained indicates if the discovery payload should be retained at the broker.
	Retained bool `yaml:"retained"`
}

var DefaultDiscovery = DiscoveryConfig{
	Prefix:     "homeassistant",
	NodeID:     "sms_gateway",
	DeviceName: "SMS Gateway",
	Retained:   true,
}

// ExecConfig is the gateway application the bootstrap hands off to.
type ExecConfig struct {
	// Enabled replaces the bootstrap process with Command. If false the
	// bootstrap exits after its checks.
	Enabled bool `yaml:"enabled"`
	// Command is the argv of the application. Command[0] is looked up in
	// $PATH when it contains no slash.
	Command []string `yaml:"command,flow"`
}

var DefaultExec = ExecConfig{
	Enabled: true,
	Command: []string{"python3", "/app/gammu_mqtt.py"},
}
