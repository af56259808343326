// Package smsgateway prepares a USB GSM modem for the SMS gateway add-on and
// hands off to the gateway application.
//
// A run loads the configuration, renders the gammu configuration file,
// waits for the serial device node, checks that the modem answers
// "gammu identify" and finally replaces the process with the gateway
// application, passing the configuration through the environment:
//
//   - MQTT_HOST, MQTT_PORT, MQTT_USER, MQTT_PASSWORD
//   - SERIAL_DEVICE
//   - LOG_LEVEL
//
// Only a device that never appears is fatal. A modem that does not answer
// is reported and the application is started anyway, since it keeps
// polling the modem itself.
//
// Full documentation is available at:
// https://pkg.go.dev/github.com/lone-faerie/smsgateway
package smsgateway
