package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/lumina-io/lumina-core/internal/light"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// customHolidaysInRange resolves each user-authored recurring holiday to its
// occurrences within [start, end). An unparseable rule skips that holiday
// rather than failing the whole aggregation.
func customHolidaysInRange(start, end time.Time, holidays []profile.CustomHoliday, onError func(name string, err error)) []CalendarEvent {
	var out []CalendarEvent
	for _, h := range holidays {
		dates, err := resolveCustomHoliday(h, start, end)
		if err != nil {
			if onError != nil {
				onError(h.Name, err)
			}
			continue
		}
		for _, date := range dates {
			ev := CalendarEvent{
				Name:            h.Name,
				Date:            date,
				Type:            TypeCustom,
				SuggestedColors: append([]string(nil), h.Colors...),
				Priority:        PriorityCustom,
			}
			if effect, ok := effectIDByName(h.Effect); ok {
				ev.SuggestedEffectID = &effect
			}
			out = append(out, ev)
		}
	}
	return out
}

func resolveCustomHoliday(h profile.CustomHoliday, start, end time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(h.RRule)
	if err != nil {
		return nil, fmt.Errorf("parsing recurrence for %q: %w", h.Name, err)
	}

	// Anchor recurrence far enough back that yearly rules resolve their
	// first in-range occurrence regardless of when the holiday was created.
	r.DTStart(time.Date(start.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC))

	occurrences := r.Between(startOfDay(start).UTC(), end.UTC(), true)

	dates := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		if !occ.Before(end.UTC()) {
			continue
		}
		dates = append(dates, time.Date(occ.Year(), occ.Month(), occ.Day(), 0, 0, 0, 0, time.UTC))
	}
	return dates, nil
}

// effectIDByName maps the friendly effect names accepted in custom holidays
// to firmware effect IDs.
func effectIDByName(name string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "solid":
		return light.EffectSolid, true
	case "breathe":
		return light.EffectBreathe, true
	case "rainbow":
		return light.EffectRainbow, true
	case "fade":
		return light.EffectFade, true
	case "chase":
		return light.EffectChase, true
	case "fireworks":
		return light.EffectFireworks, true
	case "twinkle":
		return light.EffectTwinkle, true
	case "candle":
		return light.EffectCandle, true
	default:
		return 0, false
	}
}
