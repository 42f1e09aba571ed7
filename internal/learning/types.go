package learning

import (
	"time"

	"github.com/lumina-io/lumina-core/internal/schedule"
)

// FeedbackType classifies a user decision on a planned item.
type FeedbackType string

const (
	FeedbackAccepted    FeedbackType = "accepted"
	FeedbackRejected    FeedbackType = "rejected"
	FeedbackModified    FeedbackType = "modified"
	FeedbackAutoApplied FeedbackType = "autoApplied"
)

// validFeedbackTypes guards aggregation against unknown values in storage.
var validFeedbackTypes = map[FeedbackType]bool{
	FeedbackAccepted:    true,
	FeedbackRejected:    true,
	FeedbackModified:    true,
	FeedbackAutoApplied: true,
}

// FeedbackRecord is one append-only record of a user decision.
type FeedbackRecord struct {
	ID             string
	UserID         string
	ScheduleItemID string
	PatternName    string
	Trigger        schedule.Trigger
	FeedbackType   FeedbackType
	// EffectID is the effect the item proposed; AfterEffectID and the color
	// pairs are set only for "modified" feedback.
	EffectID      *int
	AfterEffectID *int
	BeforeColors  []string
	AfterColors   []string
	// ScheduledHour is the local hour the item would have fired.
	ScheduledHour int
	Timestamp     time.Time
}

// isSuccess reports whether the user kept the pattern in some form.
func (r FeedbackRecord) isSuccess() bool {
	switch r.FeedbackType {
	case FeedbackAccepted, FeedbackAutoApplied, FeedbackModified:
		return true
	default:
		return false
	}
}

// Preferences is the derived view over a user's feedback history.
type Preferences struct {
	TriggerSuccessRates map[schedule.Trigger]float64 `json:"triggerSuccessRates"`
	PatternSuccessRates map[string]float64           `json:"patternSuccessRates"`
	PreferredEffectIDs  []int                        `json:"preferredEffectIds"`
	AvoidedEffectIDs    []int                        `json:"avoidedEffectIds"`
	PreferredHours      []int                        `json:"preferredHours"`
	TotalFeedbackCount  int                          `json:"totalFeedbackCount"`
	LastUpdated         time.Time                    `json:"lastUpdated"`
}

// HasAvoidedEffect reports whether the given effect is on the avoid list.
func (p *Preferences) HasAvoidedEffect(effectID int) bool {
	for _, id := range p.AvoidedEffectIDs {
		if id == effectID {
			return true
		}
	}
	return false
}

// HasPreferredEffect reports whether the given effect is on the prefer list.
func (p *Preferences) HasPreferredEffect(effectID int) bool {
	for _, id := range p.PreferredEffectIDs {
		if id == effectID {
			return true
		}
	}
	return false
}

// HasPreferredHour reports whether the given local hour is preferred.
func (p *Preferences) HasPreferredHour(hour int) bool {
	for _, h := range p.PreferredHours {
		if h == hour {
			return true
		}
	}
	return false
}
