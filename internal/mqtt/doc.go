// Package mqtt connects the Shark bridge to an MQTT broker.
//
// It wraps paho.mqtt.golang with:
//   - Connection with timeout and auto-reconnect
//   - Publishing with QoS and payload checks
//   - Subscriptions that are restored after a reconnect
//   - A retained Last Will on the bridge status topic
//
// Topic layout, with the default prefix "shark":
//
//	shark/bridge/status          online/offline (retained)
//	shark/<dsn>/info             device description (retained)
//	shark/<dsn>/state            connection and operating mode (retained)
//	shark/<dsn>/command          clean | stop | pause | locate
package mqtt
