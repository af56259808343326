// Package icon provides a few useful [Material Design Icons].
//
// [Material Design Icons]: https://pictogrammers.com/library/mdi/
package icon

// Icon names
const (
	CellphoneMessage = "mdi:cellphone-message"
	LanConnect       = "mdi:lan-connect"
	SerialPort       = "mdi:serial-port"
	SimCard          = "mdi:sim"
	USBPort          = "mdi:usb-port"
)
