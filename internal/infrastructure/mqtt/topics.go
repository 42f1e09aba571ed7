package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Lumina MQTT namespace.
//
// Controller topics use the per-device scheme the cloud bridges expect:
// lumina/{device_id}/{category}. The bridge firmware subscribes to its own
// command topic and reports WLED responses on its status topic.
const (
	// TopicPrefix is the base for all Lumina topics.
	TopicPrefix = "lumina"

	// TopicPrefixSystem is the base for core system topics.
	TopicPrefixSystem = "lumina/system"

	// TopicPrefixAutopilot is the base for autopilot event topics.
	TopicPrefixAutopilot = "lumina/autopilot"
)

// Topics provides builders for Lumina MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("controller-001")
//	// Returns: "lumina/controller-001/command"
type Topics struct{}

// DeviceCommand returns the topic a bridge listens on for lighting commands.
//
// Example: lumina/controller-001/command
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefix, deviceID)
}

// DeviceStatus returns the topic a bridge publishes WLED responses and
// heartbeats on.
//
// Example: lumina/controller-001/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, deviceID)
}

// AllDeviceStatus returns the wildcard pattern matching every bridge
// status topic.
//
// Example: lumina/+/status
func (Topics) AllDeviceStatus() string {
	return TopicPrefix + "/+/status"
}

// SystemStatus returns the core online/offline status topic.
// Used for the Last Will and Testament and graceful shutdown messages.
//
// Example: lumina/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AutopilotEvent returns the topic for autopilot lifecycle events
// (schedule regenerated, item applied, item dropped).
//
// Example: lumina/autopilot/event/schedule_regenerated
func (Topics) AutopilotEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixAutopilot, eventType)
}

// AutopilotSuggestions returns the topic pending suggestions are published
// on for a given user. Companion apps subscribe here for approval prompts.
//
// Example: lumina/autopilot/user-abc/suggestions
func (Topics) AutopilotSuggestions(userID string) string {
	return fmt.Sprintf("%s/%s/suggestions", TopicPrefixAutopilot, userID)
}

// DeviceIDFromStatusTopic extracts the device ID from a status topic.
// Returns ErrBadStatusTopic if the topic does not match lumina/{id}/status.
func DeviceIDFromStatusTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[2] != "status" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrBadStatusTopic, topic)
	}
	return parts[1], nil
}
