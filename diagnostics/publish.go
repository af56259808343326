package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/discovery"
	"github.com/lone-faerie/smsgateway/log"
)

// ClientIDPrefix is the prefix of the generated MQTT client id.
const ClientIDPrefix = "sms-gateway-bootstrap-"

const disconnectQuiesce = 250

// Publisher publishes a [Report] once with a short lived MQTT connection.
type Publisher struct {
	MQTT        config.MQTTConfig
	Diagnostics config.DiagnosticsConfig
	Discovery   config.DiscoveryConfig

	// NewClient creates the client. The default is [mqtt.NewClient].
	NewClient func(*mqtt.ClientOptions) mqtt.Client
}

// NewPublisher returns a Publisher using the settings of cfg.
func NewPublisher(cfg *config.Config) *Publisher {
	setClientLoggers(cfg.MQTT.LogLevel)
	return &Publisher{
		MQTT:        cfg.MQTT,
		Diagnostics: cfg.Diagnostics,
		Discovery:   cfg.Discovery,
		NewClient:   mqtt.NewClient,
	}
}

// setClientLoggers routes the MQTT client's logging at or above level to
// the log package.
func setClientLoggers(level string) {
	l, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Invalid MQTT log level", "level", level)
		return
	}
	if l <= log.LevelError {
		mqtt.ERROR = log.ErrorLogger()
		mqtt.CRITICAL = log.ErrorLogger()
	}
	if l <= log.LevelWarn {
		mqtt.WARN = log.WarnLogger()
	}
	if l <= log.LevelDebug {
		mqtt.DEBUG = log.DebugLogger()
	}
}

func (p *Publisher) clientOptions() *mqtt.ClientOptions {
	o := p.MQTT.ClientOptions()
	if p.MQTT.ClientID == "" {
		o.SetClientID(ClientIDPrefix + uuid.NewString())
	}
	return o
}

// Publish connects to the broker, publishes r to the diagnostics topic and,
// if enabled, the discovery of the diagnostic sensors, then disconnects.
func (p *Publisher) Publish(ctx context.Context, r *Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	newClient := p.NewClient
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	o := p.clientOptions()
	c := newClient(o)

	log.Debug("Connecting to broker", "broker", p.MQTT.Broker(), "client_id", o.ClientID)
	if err = waitToken(ctx, c.Connect()); err != nil {
		return fmt.Errorf("connect to %s: %w", p.MQTT.Broker(), err)
	}
	defer c.Disconnect(disconnectQuiesce)

	topic := p.Diagnostics.Topic
	if topic == "" {
		topic = config.DefaultDiagnostics.Topic
	}
	t := c.Publish(topic, p.Diagnostics.QoS, p.Diagnostics.Retained, payload)
	if err = waitToken(ctx, t); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	log.Info("Published diagnostics", "topic", topic)

	if !p.Discovery.Enabled {
		return nil
	}

	d, err := discovery.New(&p.Discovery, discovery.NewDevice(r.ModemInfo()), Sensors{Topic: topic})
	if err != nil {
		return err
	}
	if err = d.Publish(ctx, c, p.Diagnostics.QoS); err != nil {
		return fmt.Errorf("publish discovery: %w", err)
	}
	return nil
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Done():
	}
	return t.Error()
}
