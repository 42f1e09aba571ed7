// Package mqtt provides MQTT connectivity for Lumina Core.
//
// This package wraps eclipse/paho.mqtt.golang with:
//   - Connection management with auto-reconnect and exponential backoff
//   - Subscription tracking and restoration after reconnect
//   - Last Will and Testament for offline detection
//   - Panic recovery in message handlers
//
// # Topic Scheme
//
// Controller bridges use per-device topics:
//
//	lumina/{device_id}/command   — WLED state JSON the bridge forwards
//	lumina/{device_id}/status    — bridge heartbeats and WLED responses
//
// Core topics:
//
//	lumina/system/status                     — core online/offline (retained, LWT)
//	lumina/autopilot/event/{type}            — autopilot lifecycle events
//	lumina/autopilot/{user_id}/suggestions   — pending suggestion prompts
//
// Use the Topics helpers rather than hand-building topic strings.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceCommand("controller-001")
//	err = client.Publish(topic, payload, 1, false)
package mqtt
