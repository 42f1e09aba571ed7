// Package device tracks the lighting controllers registered with the hub and
// delivers planned configurations to them over MQTT.
//
// Controllers announce themselves on lumina/{deviceId}/status and accept
// WLED-shaped state payloads on lumina/{deviceId}/command. The sink treats a
// command publish as fire-and-forget at the application layer: delivery
// failures are reported to the caller, but no retry is attempted here.
package device
