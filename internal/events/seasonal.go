package events

import (
	"time"

	"github.com/lumina-io/lumina-core/internal/light"
)

// Seasonal markers use fixed calendar approximations, not astronomical
// computation.
var seasonalMarkers = []struct {
	name     string
	month    time.Month
	day      int
	colors   []string
	effectID int
}{
	{name: "Spring Equinox", month: time.March, day: 20, colors: []string{"#98FB98", "#FFB6C1"}, effectID: light.EffectFade},
	{name: "Summer Solstice", month: time.June, day: 21, colors: []string{"#FFD700", "#FF8C00"}, effectID: light.EffectBreathe},
	{name: "Fall Equinox", month: time.September, day: 22, colors: []string{"#D2691E", "#8B0000"}, effectID: light.EffectFade},
	{name: "Winter Solstice", month: time.December, day: 21, colors: []string{"#4169E1", "#E0FFFF"}, effectID: light.EffectTwinkle},
}

func seasonalEventsInRange(start, end time.Time) []CalendarEvent {
	var out []CalendarEvent
	for year := start.Year(); year <= end.Year(); year++ {
		for _, m := range seasonalMarkers {
			date := time.Date(year, m.month, m.day, 0, 0, 0, 0, time.UTC)
			if date.Before(startOfDay(start)) || !date.Before(end) {
				continue
			}
			effect := m.effectID
			out = append(out, CalendarEvent{
				Name:              m.name,
				Date:              date,
				Type:              TypeSeasonal,
				SuggestedColors:   append([]string(nil), m.colors...),
				SuggestedEffectID: &effect,
				Priority:          PrioritySeasonal,
			})
		}
	}
	return out
}
