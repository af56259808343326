// Package discovery builds Home Assistant MQTT device discovery payloads.
//
// See https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/log"
)

const (
	BinarySensor = "binary_sensor"
	Sensor       = "sensor"
)

const (
	Diagnostic = "diagnostic"
)

// Component is the configuration of a single entity of the device.
type Component map[Option]any

// A Discoverer adds its components to a Discovery.
type Discoverer interface {
	Discover(*Discovery)
}

// Discovery is the device discovery payload.
type Discovery struct {
	Origin     *Origin              `json:"o"`
	Device     *Device              `json:"dev"`
	Components map[string]Component `json:"cmps"`

	cfg *config.DiscoveryConfig

	ObjectID string `json:"-"`
	NodeID   string `json:"-"`
}

// New returns the discovery of dev with the components of cmps.
func New(cfg *config.DiscoveryConfig, dev *Device, cmps ...Discoverer) (*Discovery, error) {
	if dev == nil || len(dev.Identifiers) == 0 {
		return nil, errors.New("discovery: device has no identifiers")
	}
	if cfg.DeviceName != "" {
		dev.Name = cfg.DeviceName
	}

	d := &Discovery{
		Origin:     NewOrigin(),
		Device:     dev,
		Components: make(map[string]Component, len(cmps)),
		cfg:        cfg,
		NodeID:     cfg.NodeID,
		ObjectID:   sanitize(strings.Join(dev.Identifiers, "_")),
	}
	if d.NodeID == "" {
		d.NodeID = config.DefaultDiscovery.NodeID
	}
	for i := range cmps {
		cmps[i].Discover(d)
	}
	return d, nil
}

// UniqueID returns a unique id for the component name of this device.
func (d *Discovery) UniqueID(name string) string {
	return d.NodeID + "_" + d.ObjectID + "_" + name
}

// Topic returns the discovery topic in the form
// <prefix>/device/<node_id>/<object_id>/config.
func (d *Discovery) Topic() string {
	prefix := d.cfg.Prefix
	if prefix == "" {
		prefix = config.DefaultDiscovery.Prefix
	}
	return strings.Join([]string{prefix, "device", d.NodeID, d.ObjectID, "config"}, "/")
}

// Publish publishes the discovery payload with c.
func (d *Discovery) Publish(ctx context.Context, c mqtt.Client, qos byte) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	topic := d.Topic()
	log.Debug("Publishing discovery", "topic", topic)
	return waitToken(ctx, c.Publish(topic, qos, d.cfg.Retained, b))
}

// Remove publishes an empty payload to the discovery topic, which removes
// the device from Home Assistant.
func (d *Discovery) Remove(ctx context.Context, c mqtt.Client, qos byte) error {
	return waitToken(ctx, c.Publish(d.Topic(), qos, d.cfg.Retained, []byte{}))
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Done():
	}
	return t.Error()
}

// sanitize replaces characters not allowed in a topic level id with '_'.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}
