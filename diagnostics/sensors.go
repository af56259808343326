package diagnostics

import (
	"github.com/lone-faerie/smsgateway/discovery"
	"github.com/lone-faerie/smsgateway/discovery/icon"
)

// Sensors discovers the diagnostic entities reading the report published
// on Topic.
type Sensors struct {
	Topic string
}

func (s Sensors) Discover(d *discovery.Discovery) {
	d.Components["modem_connection"] = discovery.Component{
		discovery.Platform:               discovery.BinarySensor,
		discovery.Name:                   "Modem connection",
		discovery.UniqueID:               d.UniqueID("modem_connection"),
		discovery.DeviceClass:            discovery.Connectivity,
		discovery.EntityCategory:         discovery.Diagnostic,
		discovery.StateTopic:             s.Topic,
		discovery.ValueTemplate:          "{{ 'OFF' if value_json.all_failed else 'ON' }}",
		discovery.JSONAttributesTopic:    s.Topic,
		discovery.JSONAttributesTemplate: "{{ value_json.device_info | default({}) | tojson }}",
	}
	d.Components["working_connection"] = discovery.Component{
		discovery.Platform:       discovery.Sensor,
		discovery.Name:           "Working connection",
		discovery.UniqueID:       d.UniqueID("working_connection"),
		discovery.Icon:           icon.SerialPort,
		discovery.EntityCategory: discovery.Diagnostic,
		discovery.StateTopic:     s.Topic,
		discovery.ValueTemplate:  "{{ value_json.successful_connection or 'none' }}",
	}
	d.Components["serial_device"] = discovery.Component{
		discovery.Platform:               discovery.Sensor,
		discovery.Name:                   "Serial device",
		discovery.UniqueID:               d.UniqueID("serial_device"),
		discovery.Icon:                   icon.USBPort,
		discovery.EntityCategory:         discovery.Diagnostic,
		discovery.StateTopic:             s.Topic,
		discovery.ValueTemplate:          "{{ value_json.device }}",
		discovery.JSONAttributesTopic:    s.Topic,
		discovery.JSONAttributesTemplate: "{{ {'selection_reason': value_json.selection_reason} | tojson }}",
	}
}
