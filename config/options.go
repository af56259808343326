package config

import (
	"github.com/lone-faerie/smsgateway/log"
)

// Options are the user options injected by the add-on host, usually at
// /data/options.json. Both the flat keys and the nested mqtt block are
// accepted. The flat keys win when both are set.
type Options struct {
	MQTTHost     string `yaml:"mqtt_host"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`

	MQTT struct {
		Broker   string `yaml:"broker"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"mqtt"`

	Device       string `yaml:"device"`
	LogLevel     string `yaml:"log_level"`
	Debug        bool   `yaml:"debug"`
	FallbackScan *bool  `yaml:"fallback_scan"`
	Probe        *bool  `yaml:"probe"`
	Publish      *bool  `yaml:"publish_diagnostics"`
	Discovery    *bool  `yaml:"discovery"`
}

func firstNonZero[T comparable](vals ...T) (zero T) {
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return
}

func (opts *Options) apply(cfg *Config) error {
	if s := firstNonZero(opts.MQTTHost, opts.MQTT.Broker); s != "" {
		cfg.MQTT.Host = s
	}
	if n := firstNonZero(opts.MQTTPort, opts.MQTT.Port); n != 0 {
		cfg.MQTT.Port = n
	}
	if s := firstNonZero(opts.MQTTUser, opts.MQTT.Username); s != "" {
		cfg.MQTT.Username = s
	}
	if s := firstNonZero(opts.MQTTPassword, opts.MQTT.Password); s != "" {
		cfg.MQTT.Password = s
	}
	if opts.Device != "" {
		cfg.Device.Path = opts.Device
	}

	switch {
	case opts.LogLevel != "":
		if err := cfg.Log.Level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
			return err
		}
	case opts.Debug:
		cfg.Log.Level = log.LevelDebug
	}

	if opts.FallbackScan != nil {
		cfg.Device.FallbackScan = *opts.FallbackScan
	}
	if opts.Probe != nil {
		cfg.Gammu.Probe = *opts.Probe
	}
	if opts.Publish != nil {
		cfg.Diagnostics.Publish = *opts.Publish
	}
	if opts.Discovery != nil {
		cfg.Discovery.Enabled = *opts.Discovery
	}
	return nil
}
