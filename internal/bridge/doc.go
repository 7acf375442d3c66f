// Package bridge mirrors Shark vacuums onto MQTT.
//
// After logging in, the bridge publishes a retained info message per device,
// polls the device list on an interval and publishes retained state messages
// when a device's state changes. Commands published to the per-device command
// topic (clean, stop, pause, locate) are forwarded to the vacuum.
//
// Client errors are logged with their error kind and never stop the bridge.
package bridge
