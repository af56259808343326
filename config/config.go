// Package config provides the structures used for configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lone-faerie/smsgateway/config/secrets"
	"github.com/lone-faerie/smsgateway/internal/poll"
	"github.com/lone-faerie/smsgateway/log"
)

// DefaultOptionsPath is where the add-on host injects the user's options.
const DefaultOptionsPath = "/data/options.json"

// Config contains the configuration for the bootstrap and the environment
// handed to the gateway application. Config should be created with a call to
// [Default], [Read], or [Load] and treated as read-only afterwards. Use
// [Config.WithDevice] to derive a copy with a different device.
type Config struct {
	MQTT        MQTTConfig        `yaml:"mqtt,omitempty"`
	Device      DeviceConfig      `yaml:"device,omitempty"`
	Gammu       GammuConfig       `yaml:"gammu,omitempty"`
	Wait        WaitConfig        `yaml:"wait,omitempty"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics,omitempty"`
	Discovery   DiscoveryConfig   `yaml:"discovery,omitempty"`
	Exec        ExecConfig        `yaml:"exec,omitempty"`
	Log         LogConfig         `yaml:"log,omitempty"`
}

// Default returns the default Config when no options or config file is
// provided. Each call returns a new value.
func Default() *Config {
	cfg := &Config{
		MQTT:        DefaultMQTT,
		Device:      DefaultDevice,
		Gammu:       DefaultGammu,
		Wait:        DefaultWait,
		Diagnostics: DefaultDiagnostics,
		Discovery:   DefaultDiscovery,
		Exec:        DefaultExec,
		Log:         DefaultLog,
	}
	cfg.Device.Fallbacks = slices.Clone(DefaultDevice.Fallbacks)
	cfg.Gammu.ProbeConnections = slices.Clone(DefaultGammu.ProbeConnections)
	cfg.Exec.Command = slices.Clone(DefaultExec.Command)
	return cfg
}

// Read returns the Config parsed from the yaml encoded config from r, on top
// of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// decode decodes the yaml from r into cfg, expanding the string values read.
func (cfg *Config) decode(r io.Reader) error {
	var node yaml.Node
	err := yaml.NewDecoder(r).Decode(&node)
	if errors.Is(err, io.EOF) {
		return nil
	} else if err != nil {
		return err
	}

	expandNode(&node)
	return node.Decode(cfg)
}

// Load builds the Config in order of increasing precedence from the defaults,
// the add-on options file at optionsPath, the yaml files and the environment.
// A missing options file or config file is not an error. Only values read
// from the yaml files are expanded with [Expand]; options and environment
// values are used verbatim.
func Load(optionsPath string, files ...string) (*Config, error) {
	cfg := Default()

	if optionsPath != "" {
		if err := cfg.loadOptions(optionsPath); err != nil {
			return nil, err
		}
	}

	for _, file := range files {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) loadOptions(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("Options file not found, using defaults", "path", path)
		return nil
	} else if err != nil {
		return err
	}

	var opts Options
	if err = yaml.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	log.Debug("Loaded options", "path", path)
	return opts.apply(cfg)
}

func (cfg *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("Config file not found", "path", path)
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	log.Info("Loading config", "path", path)
	if err = cfg.decode(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting that would make the bootstrap
// misbehave.
func (cfg *Config) Validate() error {
	switch {
	case cfg.MQTT.Port < 0 || cfg.MQTT.Port > 65535:
		return fmt.Errorf("mqtt port %d out of range", cfg.MQTT.Port)
	case cfg.Wait.Interval <= 0:
		return fmt.Errorf("wait interval must be positive, got %v", cfg.Wait.Interval)
	case cfg.Wait.Timeout < 0:
		return fmt.Errorf("wait timeout must not be negative, got %v", cfg.Wait.Timeout)
	case cfg.Gammu.ConfigPath == "":
		return errors.New("gammu config path is empty")
	case cfg.Gammu.Connection == "":
		return errors.New("gammu connection is empty")
	}
	return nil
}

// WithDevice returns a copy of cfg using path as the serial device.
func (cfg *Config) WithDevice(path string) *Config {
	c := *cfg
	c.Device.Path = path
	return &c
}

// Expand replaces ${var} or $var in s according to the values of
// the current environment variables, and replaces !secret var according
// to the file at /run/secrets/<var>.
func Expand(s string) string {
	if secret, ok := secrets.CutPrefix(s); ok {
		return secrets.MustRead(secret, "")
	}
	return os.ExpandEnv(s)
}

// secretTag is the yaml tag form of [secrets.Prefix], as in
// "password: !secret mqtt_password".
const secretTag = "!secret"

// expandNode calls [Expand] on the string values below n. Mapping keys are
// left alone.
func expandNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == secretTag {
			n.Value, n.Tag = secrets.Prefix+n.Value, "!!str"
		}
		if n.ShortTag() == "!!str" && strings.ContainsAny(n.Value, "$!") {
			n.Value = Expand(n.Value)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			expandNode(n.Content[i])
		}
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			expandNode(c)
		}
	}
}

// Write writes the yaml encoding of cfg to w.
func (cfg *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// Attempts returns the number of device checks allowed by the wait
// settings, ⌈timeout/interval⌉, and at least 1.
func (cfg WaitConfig) Attempts() int {
	return poll.Attempts(cfg.Timeout, cfg.Interval)
}

// WaitConfig is the policy for waiting on the device node.
type WaitConfig struct {
	// Interval between checks for the device node. The default value is 2s.
	Interval time.Duration `yaml:"interval"`
	// Timeout is the maximum time to wait for the device node. The default
	// value is 60s, i.e. 30 checks.
	Timeout time.Duration `yaml:"timeout"`
	// Watch wakes the wait early when the device's directory changes.
	Watch bool `yaml:"watch"`
}

var DefaultWait = WaitConfig{
	Interval: 2 * time.Second,
	Timeout:  60 * time.Second,
	Watch:    true,
}
