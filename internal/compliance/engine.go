package compliance

import (
	"errors"
	"fmt"
	"time"

	"github.com/lumina-io/lumina-core/internal/light"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// ErrInvalidQuietHours indicates a quiet-hours value that is not HH:MM.
var ErrInvalidQuietHours = errors.New("compliance: invalid quiet hours format")

// Brightness caps by time of day.
const (
	brightnessFull    = 255
	brightnessEvening = 220 // 21:00-22:00
	brightnessNight   = 180 // 22:00-06:00
)

// lowVibeEffects is the allow-list applied when vibe level is below 0.3.
var lowVibeEffects = map[int]bool{
	light.EffectSolid:   true,
	light.EffectBreathe: true,
	light.EffectFade:    true,
	light.EffectCandle:  true,
}

// highIntensityEffects is the deny-list applied for vibe levels in [0.3, 0.5).
var highIntensityEffects = map[int]bool{
	light.EffectStrobe:    true,
	light.EffectLightning: true,
	light.EffectFireworks: true,
}

// Engine evaluates compliance rules for a single profile's settings.
type Engine struct {
	enabled    bool
	quietStart int // minutes since midnight
	quietEnd   int
	hasQuiet   bool
	windows    []profile.SeasonalWindow
}

// New builds an engine from a profile's compliance settings. Quiet hours are
// parsed eagerly so malformed settings surface at construction.
func New(settings profile.ComplianceSettings) (*Engine, error) {
	e := &Engine{
		enabled: settings.Enabled,
		windows: settings.SeasonalColorWindows,
	}

	if settings.QuietHoursStart != "" && settings.QuietHoursEnd != "" {
		start, err := parseClock(settings.QuietHoursStart)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(settings.QuietHoursEnd)
		if err != nil {
			return nil, err
		}
		// Identical start and end means no quiet window at all.
		if start != end {
			e.quietStart = start
			e.quietEnd = end
			e.hasQuiet = true
		}
	}

	return e, nil
}

// IsTimeAllowed reports whether a lighting change may occur at t.
// Quiet hours wrap midnight when start is later than end.
func (e *Engine) IsTimeAllowed(t time.Time) bool {
	if !e.enabled || !e.hasQuiet {
		return true
	}
	m := t.Hour()*60 + t.Minute()
	if e.quietStart < e.quietEnd {
		return m < e.quietStart || m >= e.quietEnd
	}
	// Wrapped window: [start, 24:00) union [0, end).
	return m < e.quietStart && m >= e.quietEnd
}

// NextAllowedTime returns the earliest time at or after t at which a change
// is permitted. For a time inside the quiet window this is the window's end,
// on the same day when t falls in the pre-dawn portion and on the following
// day otherwise.
func (e *Engine) NextAllowedTime(t time.Time) time.Time {
	if e.IsTimeAllowed(t) {
		return t
	}

	endHour, endMin := e.quietEnd/60, e.quietEnd%60
	end := time.Date(t.Year(), t.Month(), t.Day(), endHour, endMin, 0, 0, t.Location())

	m := t.Hour()*60 + t.Minute()
	if e.quietStart > e.quietEnd && m >= e.quietStart {
		// Evening portion of a wrapped window; the window ends tomorrow.
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// AreColorsAllowed reports whether colored light is permitted on the given
// date. With no seasonal windows configured, colors are always allowed;
// otherwise the date must fall inside at least one window. Windows may wrap
// the year boundary.
func (e *Engine) AreColorsAllowed(date time.Time) bool {
	if !e.enabled || len(e.windows) == 0 {
		return true
	}

	packed := int(date.Month())*100 + date.Day()
	for _, w := range e.windows {
		start := w.StartMonth*100 + w.StartDay
		end := w.EndMonth*100 + w.EndDay
		if start <= end {
			if packed >= start && packed <= end {
				return true
			}
		} else if packed >= start || packed <= end {
			return true
		}
	}
	return false
}

// MaxBrightness returns the brightness cap in effect at t.
func (e *Engine) MaxBrightness(t time.Time) int {
	if !e.enabled {
		return brightnessFull
	}
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= 21*60 && m < 22*60:
		return brightnessEvening
	case m >= 22*60 || m < 6*60:
		return brightnessNight
	default:
		return brightnessFull
	}
}

// IsEffectAllowed reports whether an effect is permitted at the given vibe
// level. Low-vibe profiles are restricted to an allow-list of subtle effects,
// moderate profiles exclude high-intensity effects, and profiles at or above
// 0.5 allow everything.
func (e *Engine) IsEffectAllowed(effectID int, vibeLevel float64) bool {
	if !e.enabled {
		return true
	}
	switch {
	case vibeLevel < 0.3:
		return lowVibeEffects[effectID]
	case vibeLevel < 0.5:
		return !highIntensityEffects[effectID]
	default:
		return true
	}
}

// RewriteForCompliance returns a compliant copy of cfg as it would apply at
// t: disallowed colors become warm white, brightness is clamped to the
// time-of-day cap, and disallowed effects are forced to solid. The input is
// never mutated.
func (e *Engine) RewriteForCompliance(cfg light.Config, t time.Time, vibeLevel float64) light.Config {
	out := cfg.Clone()
	if !e.enabled {
		return out
	}

	colorsAllowed := e.AreColorsAllowed(t)
	limit := e.MaxBrightness(t)

	if out.Brightness > limit {
		out.Brightness = limit
	}
	for i := range out.Segments {
		if !colorsAllowed && len(out.Segments[i].Colors) > 0 {
			out.Segments[i].Colors = []string{light.WarmWhite}
		}
		if !e.IsEffectAllowed(out.Segments[i].EffectID, vibeLevel) {
			out.Segments[i].EffectID = light.EffectSolid
		}
	}
	return out
}

func parseClock(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuietHours, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuietHours, s)
	}
	return hour*60 + minute, nil
}
