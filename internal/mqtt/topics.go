package mqtt

import "strings"

// Topics builds topic names under a common prefix.
//
//	topics := mqtt.NewTopics("shark")
//	topics.DeviceState("AC000W000000001") // "shark/AC000W000000001/state"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders for prefix. Trailing slashes are dropped.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.TrimRight(prefix, "/")}
}

// BridgeStatus returns the retained online/offline topic of the bridge.
func (t Topics) BridgeStatus() string {
	return t.prefix + "/bridge/status"
}

// DeviceInfo returns the retained description topic of a device.
func (t Topics) DeviceInfo(dsn string) string {
	return t.prefix + "/" + dsn + "/info"
}

// DeviceState returns the retained state topic of a device.
func (t Topics) DeviceState(dsn string) string {
	return t.prefix + "/" + dsn + "/state"
}

// DeviceCommand returns the command topic of a device.
func (t Topics) DeviceCommand(dsn string) string {
	return t.prefix + "/" + dsn + "/command"
}

// AllDeviceCommands returns a wildcard matching every device command topic.
func (t Topics) AllDeviceCommands() string {
	return t.prefix + "/+/command"
}

// ParseDeviceCommand extracts the serial number from a command topic.
func (t Topics) ParseDeviceCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.prefix+"/")
	if !ok {
		return "", false
	}
	dsn, ok := strings.CutSuffix(rest, "/command")
	if !ok || dsn == "" || strings.Contains(dsn, "/") {
		return "", false
	}
	return dsn, true
}
