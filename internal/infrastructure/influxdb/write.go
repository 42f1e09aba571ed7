package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFeedback records a single user feedback event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - userID: The user the feedback belongs to
//   - trigger: The schedule item trigger (holiday, gameDay, seasonal, ...)
//   - feedbackType: accepted, rejected, modified, or autoApplied
func (c *Client) WriteFeedback(userID, trigger, feedbackType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"autopilot_feedback",
		map[string]string{
			"user_id": userID,
			"trigger": trigger,
			"type":    feedbackType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteApplyResult records the outcome of a device apply attempt.
//
// Parameters:
//   - userID: The user whose schedule item fired
//   - trigger: The item's trigger type
//   - success: Whether the configuration reached the device sink
//   - latency: How long the apply took
func (c *Client) WriteApplyResult(userID, trigger string, success bool, latency time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"autopilot_apply",
		map[string]string{
			"user_id": userID,
			"trigger": trigger,
			"success": boolTag(success),
		},
		map[string]interface{}{
			"latency_ms": latency.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRegeneration records a schedule regeneration cycle.
//
// Parameters:
//   - userID: The user whose week was regenerated
//   - itemCount: Number of schedule items produced
//   - eventCount: Number of calendar events that survived conflict resolution
//   - forced: Whether this was a user-forced regeneration
func (c *Client) WriteRegeneration(userID string, itemCount, eventCount int, forced bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"autopilot_regeneration",
		map[string]string{
			"user_id": userID,
			"forced":  boolTag(forced),
		},
		map[string]interface{}{
			"items":  itemCount,
			"events": eventCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
