package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables exported to the gateway application.
const (
	EnvMQTTHost     = "MQTT_HOST"
	EnvMQTTPort     = "MQTT_PORT"
	EnvMQTTUser     = "MQTT_USER"
	EnvMQTTPassword = "MQTT_PASSWORD"
	EnvSerialDevice = "SERIAL_DEVICE"
	EnvLogLevel     = "LOG_LEVEL"
)

// applyEnv overrides cfg with the non-empty contract variables.
func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvMQTTHost); ok {
		cfg.MQTT.Host = v
	}
	if v, ok := get(EnvMQTTPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMQTTPort, err)
		}
		cfg.MQTT.Port = port
	}
	if v, ok := get(EnvMQTTUser); ok {
		cfg.MQTT.Username = v
	}
	if v, ok := get(EnvMQTTPassword); ok {
		cfg.MQTT.Password = v
	}
	if v, ok := get(EnvSerialDevice); ok {
		cfg.Device.Path = v
	}
	if v, ok := get(EnvLogLevel); ok {
		if err := cfg.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return nil
}

// Environ returns base with the contract variables set from cfg, replacing
// any existing entries. base is not modified.
func (cfg *Config) Environ(base []string) []string {
	vars := [...][2]string{
		{EnvMQTTHost, cfg.MQTT.Host},
		{EnvMQTTPort, strconv.Itoa(cfg.MQTT.Port)},
		{EnvMQTTUser, cfg.MQTT.Username},
		{EnvMQTTPassword, cfg.MQTT.Password},
		{EnvSerialDevice, cfg.Device.Path},
		{EnvLogLevel, cfg.Log.Level.AddonName()},
	}

	env := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if isContractVar(key) {
			continue
		}
		env = append(env, kv)
	}
	for _, v := range vars {
		env = append(env, v[0]+"="+v[1])
	}
	return env
}

func isContractVar(key string) bool {
	switch key {
	case EnvMQTTHost, EnvMQTTPort, EnvMQTTUser, EnvMQTTPassword, EnvSerialDevice, EnvLogLevel:
		return true
	}
	return false
}
