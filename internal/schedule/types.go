// Package schedule defines the planned-item types shared by the orchestrator,
// the learning engine, and the API surface.
package schedule

import (
	"time"

	"github.com/lumina-io/lumina-core/internal/light"
)

// Trigger is the categorical reason an item was generated.
type Trigger string

const (
	TriggerHoliday   Trigger = "holiday"
	TriggerGameDay   Trigger = "gameDay"
	TriggerSeasonal  Trigger = "seasonal"
	TriggerCustom    Trigger = "custom"
	TriggerWeeknight Trigger = "weeknight"
	TriggerWeekend   Trigger = "weekend"
	TriggerSunrise   Trigger = "sunrise"
	TriggerSunset    Trigger = "sunset"
	TriggerLearned   Trigger = "learned"
)

// ItemState tracks an item through its weekly lifecycle.
type ItemState string

const (
	StatePending   ItemState = "pending"
	StateScheduled ItemState = "scheduled"
	StateApplied   ItemState = "applied"
	StateRejected  ItemState = "rejected"
	StateWithheld  ItemState = "withheld"
	StateDropped   ItemState = "dropped"
)

// Item is one planned lighting change within the active week.
type Item struct {
	ID              string         `json:"id"`
	ScheduledTime   time.Time      `json:"scheduledTime"`
	RepeatDays      []time.Weekday `json:"repeatDays,omitempty"`
	PatternName     string         `json:"patternName"`
	Reason          string         `json:"reason"`
	Trigger         Trigger        `json:"trigger"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Configuration   light.Config   `json:"configuration"`
	Colors          []string       `json:"colors,omitempty"`
	EffectID        *int           `json:"effectId,omitempty"`
	State           ItemState      `json:"state"`
	CreatedAt       time.Time      `json:"createdAt"`
	IsApproved      bool           `json:"isApproved"`
	WasAutoApplied  bool           `json:"wasAutoApplied"`
}

// Clone returns a deep copy so readers never observe in-place mutation.
func (i Item) Clone() Item {
	out := i
	out.RepeatDays = append([]time.Weekday(nil), i.RepeatDays...)
	out.Colors = append([]string(nil), i.Colors...)
	out.Configuration = i.Configuration.Clone()
	if i.EffectID != nil {
		effect := *i.EffectID
		out.EffectID = &effect
	}
	return out
}
