package config

import (
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig is the configuration for the MQTT broker. Host, Port, Username
// and Password are passed on to the gateway application through the
// environment; the bootstrap itself only connects to publish diagnostics.
//
// See [mqtt.ClientOptions]
type MQTTConfig struct {
	// Host is the hostname or ip-address of the broker, optionally with a
	// scheme of "tcp", "ssl" or "ws". The default value is "core-mosquitto".
	Host string `yaml:"host"`
	// Port is the port on which the broker is accepting connections.
	// The default value is 1883.
	Port int `yaml:"port"`
	// Username is the username used when connecting to the broker.
	Username string `yaml:"username"`
	// Password is the password used when connecting to the broker.
	Password string `yaml:"password"`
	// ClientID is the (optional) client ID used when connecting to the broker.
	ClientID string `yaml:"client_id,omitempty"`
	// KeepAlive is the duration that the client should wait before pinging the broker.
	KeepAlive time.Duration `yaml:"keep_alive,omitempty"`
	// ConnectTimeout is the duration that the client will wait when attempting to open a
	// connection to the broker before timing out.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
	// WriteTimeout is the duration that the client will block for when publishing a message
	// before unblocking with a timeout error.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
	// CertFile is the path to the PEM-encoded TLS certificate. If blank (default) then
	// TLS client certificates are not used.
	CertFile string `yaml:"cert_file,omitempty"`
	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file,omitempty"`
	// LogLevel is the log level to provide to the backing MQTT client package.
	// See [mqtt.Logger]
	LogLevel string `yaml:"log_level,omitempty"`

	tlsCert *tls.Certificate
}

var DefaultMQTT = MQTTConfig{
	Host:           "core-mosquitto",
	Port:           1883,
	ConnectTimeout: 10 * time.Second,
	WriteTimeout:   5 * time.Second,
	LogLevel:       "disabled",
}

// Broker returns the broker URI in the form scheme://host:port. A port
// already present in Host wins over Port.
func (cfg *MQTTConfig) Broker() string {
	host := cfg.Host
	scheme := "tcp"
	if s, rest, ok := strings.Cut(host, "://"); ok {
		scheme, host = s, rest
	}
	if _, _, err := net.SplitHostPort(host); err == nil || cfg.Port <= 0 {
		return scheme + "://" + host
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

// ClientOptions returns cfg formatted as [mqtt.ClientOptions] to provide to
// the backing MQTT client when calling [mqtt.NewClient].
func (cfg *MQTTConfig) ClientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions()
	o.AddBroker(cfg.Broker())
	o.SetClientID(cfg.ClientID)
	o.SetUsername(cfg.Username).SetPassword(cfg.Password)
	o.SetAutoReconnect(false)

	if cfg.KeepAlive > 0 {
		o.SetKeepAlive(cfg.KeepAlive)
	}

	if cfg.ConnectTimeout > 0 {
		o.SetConnectTimeout(cfg.ConnectTimeout)
	}

	if cfg.WriteTimeout > 0 {
		o.SetWriteTimeout(cfg.WriteTimeout)
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		o.SetTLSConfig(&tls.Config{
			GetClientCertificate: cfg.getClientCertificate,
		})
	}

	return o
}

func (cfg *MQTTConfig) getClientCertificate(_ *tls.CertificateRequestInfo) (*tls.Certificate, error) {
	if cfg.tlsCert == nil {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}

		cfg.tlsCert = &cert
	}

	return cfg.tlsCert, nil
}
