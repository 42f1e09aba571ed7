package profile

import (
	"fmt"
	"strings"
	"time"
)

// Autonomy levels controlling how generated schedule items are surfaced.
const (
	// AutonomyOff suppresses all suggestions. The weekly pipeline still
	// runs for bookkeeping, but nothing is surfaced or applied.
	AutonomyOff = 0

	// AutonomySuggest publishes generated items as pending suggestions
	// that wait for user approval.
	AutonomySuggest = 1

	// AutonomyProactive auto-applies high-confidence items at their
	// scheduled time; lower-confidence items fall back to suggestions.
	AutonomyProactive = 2
)

// Change tolerance values chosen by the user during onboarding.
const (
	ToleranceMinimal  = 0 // rare changes: 1/day, 3 days apart
	ToleranceModerate = 1 // 2/day, 1 day apart
	ToleranceFrequent = 2 // 3/day, no spacing requirement
)

// Profile is a user's autopilot profile.
//
// Slices and maps are stored as JSON columns; the struct is the
// in-memory working form.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Autopilot settings
	AutopilotEnabled bool    `json:"autopilot_enabled"`
	AutonomyLevel    int     `json:"autonomy_level"`  // 0, 1, or 2
	VibeLevel        float64 `json:"vibe_level"`      // 0.0 subtle .. 1.0 bold
	ChangeTolerance  int     `json:"change_tolerance"` // 0, 1, or 2

	// Installation coordinates, used for sunrise/sunset scheduling.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Event preferences
	FavoriteHolidays []string        `json:"favorite_holidays"`
	CustomHolidays   []CustomHoliday `json:"custom_holidays"`

	// FollowedTeams is ordered by priority: index 0 is the primary team.
	FollowedTeams []string `json:"followed_teams"`

	// TeamColors maps a followed team to its colours (hex strings).
	TeamColors map[string][]string `json:"team_colors,omitempty"`

	// Style preferences fed into the pattern designer prompt.
	PreferredStyles []string `json:"preferred_styles,omitempty"`
	DislikedStyles  []string `json:"disliked_styles,omitempty"`

	// Compliance holds the HOA rules for this installation.
	Compliance ComplianceSettings `json:"compliance"`

	// Controllers lists the device IDs of this user's installation.
	Controllers []string `json:"controllers"`

	// LastScheduleGenerated is the idempotence anchor for weekly
	// regeneration. Nil means the schedule has never been generated.
	LastScheduleGenerated *time.Time `json:"last_schedule_generated,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomHoliday is a user-authored recurring event.
//
// RRule holds an iCalendar recurrence rule (e.g. "FREQ=YEARLY;BYMONTH=10;BYMONTHDAY=12").
// Custom holidays outrank everything else during conflict resolution.
type CustomHoliday struct {
	Name   string   `json:"name"`
	RRule  string   `json:"rrule"`
	Colors []string `json:"colors,omitempty"`
	Effect string   `json:"effect,omitempty"`
}

// ComplianceSettings are the HOA-style rules constraining generated
// configurations. Read-only to the scheduling core.
type ComplianceSettings struct {
	Enabled bool `json:"enabled"`

	// Quiet hours in "HH:MM" 24-hour local time. The window may wrap
	// midnight (start > end).
	QuietHoursStart string `json:"quiet_hours_start"`
	QuietHoursEnd   string `json:"quiet_hours_end"`

	// SeasonalColorWindows are the periods when coloured (non-white)
	// lighting is permitted. Empty means colours are always allowed.
	SeasonalColorWindows []SeasonalWindow `json:"seasonal_color_windows,omitempty"`
}

// SeasonalWindow is a month/day range, possibly wrapping the year boundary.
type SeasonalWindow struct {
	StartMonth int `json:"start_month"`
	StartDay   int `json:"start_day"`
	EndMonth   int `json:"end_month"`
	EndDay     int `json:"end_day"`
}

// Validate checks required fields and value ranges before persistence.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p.AutonomyLevel < AutonomyOff || p.AutonomyLevel > AutonomyProactive {
		return fmt.Errorf("%w: autonomy_level must be 0, 1, or 2", ErrInvalid)
	}
	if p.VibeLevel < 0 || p.VibeLevel > 1 {
		return fmt.Errorf("%w: vibe_level must be between 0 and 1", ErrInvalid)
	}
	if p.ChangeTolerance < ToleranceMinimal || p.ChangeTolerance > ToleranceFrequent {
		return fmt.Errorf("%w: change_tolerance must be 0, 1, or 2", ErrInvalid)
	}
	return nil
}

// TeamRank returns the position of team in the user's priority ordering,
// or -1 if the team is not followed. Matching ignores case since sports
// feeds are inconsistent about capitalization.
func (p *Profile) TeamRank(team string) int {
	for i, t := range p.FollowedTeams {
		if strings.EqualFold(t, team) {
			return i
		}
	}
	return -1
}
