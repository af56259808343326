package discovery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Connection is a tuple of the form [connnection_type, connection_identifier] used for
// the device mapping of the discovery payload.
type Connection [2]string

// Device implements the device mapping for the discovery payload. This ties components
// together in Home Assistant's device registry.
type Device struct {
	ConfigurationURL string       `json:"cu,omitempty"`
	Connections      []Connection `json:"cns,omitempty"`
	HWVersion        string       `json:"hw,omitempty"`
	Identifiers      []string     `json:"ids,omitempty"`
	Manufacturer     string       `json:"mf,omitempty"`
	Model            string       `json:"mdl,omitempty"`
	ModelID          string       `json:"mdl_id,omitempty"`
	Name             string       `json:"name,omitempty"`
	SerialNumber     string       `json:"sn,omitempty"`
	SuggestedArea    string       `json:"sa,omitempty"`
	SWVersion        string       `json:"sw,omitempty"`
}

// ModemInfo is what is known about the modem when building its Device.
type ModemInfo struct {
	IMEI         string
	Serial       string
	Path         string
	Vendor       string
	Product      string
	Manufacturer string
	Model        string
	Firmware     string
}

// NewDevice returns the Device of a modem. The identifier is the IMEI if
// known, then the USB serial number, then the vendor and product ids and
// finally the device path.
func NewDevice(m ModemInfo) *Device {
	d := &Device{
		Manufacturer: title(m.Manufacturer),
		Model:        m.Model,
		SerialNumber: m.IMEI,
		SWVersion:    m.Firmware,
		Name:         "SMS Gateway",
	}
	if d.SerialNumber == "" {
		d.SerialNumber = m.Serial
	}
	if m.Vendor != "" && m.Product != "" {
		d.ModelID = m.Vendor + ":" + m.Product
	}

	switch {
	case m.IMEI != "":
		d.Identifiers = []string{"imei_" + m.IMEI}
	case m.Serial != "":
		d.Identifiers = []string{"usb_" + m.Serial}
	case d.ModelID != "":
		d.Identifiers = []string{"usb_" + m.Vendor + "_" + m.Product}
	case m.Path != "":
		d.Identifiers = []string{strings.TrimPrefix(m.Path, "/dev/")}
	}
	return d
}

// title capitalizes manufacturer names reported in upper or lower case,
// such as "HUAWEI" or "huawei".
func title(s string) string {
	if s == "" || (s != strings.ToUpper(s) && s != strings.ToLower(s)) {
		return s
	}
	return cases.Title(language.English).String(s)
}
