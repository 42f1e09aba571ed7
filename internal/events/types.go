package events

import "time"

// EventType classifies where a calendar event came from.
type EventType string

const (
	TypeHoliday   EventType = "holiday"
	TypeSportGame EventType = "sportGame"
	TypeSeasonal  EventType = "seasonal"
	TypeCustom    EventType = "custom"
)

// Priorities assigned per source. Lower values take precedence during
// same-day conflict resolution.
const (
	PriorityCustom          = 5
	PriorityFavoriteHoliday = 10
	PriorityMajorHoliday    = 20
	PriorityGameBase        = 30
	PriorityGameUnranked    = 50
	PrioritySeasonal        = 80
)

// CalendarEvent is a single dated occurrence produced by the aggregator.
type CalendarEvent struct {
	Name              string
	Date              time.Time
	Type              EventType
	SuggestedColors   []string
	SuggestedEffectID *int
	TeamName          string
	Priority          int
}

// Game is one scheduled sports game for a followed team.
type Game struct {
	ID        string
	TeamName  string
	Opponent  string
	StartTime time.Time
	HomeGame  bool
}
