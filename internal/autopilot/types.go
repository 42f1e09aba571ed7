package autopilot

import (
	"errors"
	"time"

	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/profile"
	"github.com/lumina-io/lumina-core/internal/schedule"
)

// Sentinel errors.
var (
	ErrNoProfile    = errors.New("autopilot: profile not found")
	ErrItemNotFound = errors.New("autopilot: schedule item not found")
	ErrNotPending   = errors.New("autopilot: item is not pending")
)

// autoApplyThreshold is the minimum re-blended confidence for timer-based
// auto-firing at the proactive autonomy level.
const autoApplyThreshold = 0.75

// ToleranceRule is the change-budget policy derived from the profile's
// tolerance value.
type ToleranceRule struct {
	MaxChangesPerDay      int
	MinDaysBetweenChanges int
}

// toleranceFor maps the user-chosen tolerance to its budget.
func toleranceFor(level int) ToleranceRule {
	switch level {
	case profile.ToleranceMinimal:
		return ToleranceRule{MaxChangesPerDay: 1, MinDaysBetweenChanges: 3}
	case profile.ToleranceFrequent:
		return ToleranceRule{MaxChangesPerDay: 3, MinDaysBetweenChanges: 0}
	default:
		return ToleranceRule{MaxChangesPerDay: 2, MinDaysBetweenChanges: 1}
	}
}

// triggerForEvent maps an event's type to the item trigger.
func triggerForEvent(ev events.CalendarEvent) schedule.Trigger {
	switch ev.Type {
	case events.TypeSportGame:
		return schedule.TriggerGameDay
	case events.TypeSeasonal:
		return schedule.TriggerSeasonal
	case events.TypeCustom:
		return schedule.TriggerCustom
	default:
		return schedule.TriggerHoliday
	}
}

// fillTriggerFor picks the default-fill trigger for a quiet day.
func fillTriggerFor(day time.Time) schedule.Trigger {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return schedule.TriggerWeekend
	default:
		return schedule.TriggerWeeknight
	}
}

// allWeekdays is the repeat set for the standing daily baseline.
var allWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}
