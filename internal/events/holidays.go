package events

import (
	"strings"
	"time"

	"github.com/lumina-io/lumina-core/internal/light"
)

// holiday is a catalog entry with a rule for resolving its date in a year.
type holiday struct {
	name     string
	major    bool
	dateIn   func(year int) time.Time
	colors   []string
	effectID int
}

func fixedDate(month time.Month, day int) func(int) time.Time {
	return func(year int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

// nthWeekday resolves dates like "fourth Thursday of November".
func nthWeekday(month time.Month, weekday time.Weekday, n int) func(int) time.Time {
	return func(year int) time.Time {
		t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		offset := (int(weekday) - int(t.Weekday()) + 7) % 7
		return t.AddDate(0, 0, offset+(n-1)*7)
	}
}

// easterDate computes Gregorian Easter Sunday using the anonymous algorithm.
func easterDate(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// holidayCatalog lists every holiday the planner knows how to date. The six
// major entries are always eligible; the rest only appear when favorited.
var holidayCatalog = []holiday{
	{name: "New Year's Day", major: true, dateIn: fixedDate(time.January, 1), colors: []string{"#FFD700", "#C0C0C0"}, effectID: light.EffectFireworks},
	{name: "Valentine's Day", dateIn: fixedDate(time.February, 14), colors: []string{"#FF1493", "#FF0000"}, effectID: light.EffectBreathe},
	{name: "St. Patrick's Day", dateIn: fixedDate(time.March, 17), colors: []string{"#00A652", "#FFD700"}, effectID: light.EffectChase},
	{name: "Easter", major: true, dateIn: easterDate, colors: []string{"#FFB6C1", "#E6E6FA", "#98FB98"}, effectID: light.EffectFade},
	{name: "Cinco de Mayo", dateIn: fixedDate(time.May, 5), colors: []string{"#006847", "#FFFFFF", "#CE1126"}, effectID: light.EffectChase},
	{name: "Juneteenth", dateIn: fixedDate(time.June, 19), colors: []string{"#FF0000", "#000000", "#00A652"}, effectID: light.EffectSolid},
	{name: "Independence Day", major: true, dateIn: fixedDate(time.July, 4), colors: []string{"#B22234", "#FFFFFF", "#3C3B6E"}, effectID: light.EffectFireworks},
	{name: "Halloween", major: true, dateIn: fixedDate(time.October, 31), colors: []string{"#FF6600", "#8B00FF"}, effectID: light.EffectLightning},
	{name: "Veterans Day", dateIn: fixedDate(time.November, 11), colors: []string{"#B22234", "#FFFFFF", "#3C3B6E"}, effectID: light.EffectSolid},
	{name: "Thanksgiving", major: true, dateIn: nthWeekday(time.November, time.Thursday, 4), colors: []string{"#D2691E", "#8B4513", "#FFD700"}, effectID: light.EffectCandle},
	{name: "Christmas", major: true, dateIn: fixedDate(time.December, 25), colors: []string{"#C8102E", "#00843D"}, effectID: light.EffectTwinkle},
}

// isFavorited reports whether name matches any favorite by case-insensitive
// substring in either direction.
func isFavorited(name string, favorites []string) bool {
	lower := strings.ToLower(name)
	for _, fav := range favorites {
		f := strings.ToLower(fav)
		if strings.Contains(lower, f) || strings.Contains(f, lower) {
			return true
		}
	}
	return false
}

// holidaysInRange resolves catalog holidays falling in [start, end) and
// filters to favorited or major entries.
func holidaysInRange(start, end time.Time, favorites []string) []CalendarEvent {
	var out []CalendarEvent
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range holidayCatalog {
			date := h.dateIn(year)
			if date.Before(startOfDay(start)) || !date.Before(end) {
				continue
			}

			var priority int
			switch {
			case isFavorited(h.name, favorites):
				priority = PriorityFavoriteHoliday
			case h.major:
				priority = PriorityMajorHoliday
			default:
				continue
			}

			effect := h.effectID
			out = append(out, CalendarEvent{
				Name:              h.name,
				Date:              date,
				Type:              TypeHoliday,
				SuggestedColors:   append([]string(nil), h.colors...),
				SuggestedEffectID: &effect,
				Priority:          priority,
			})
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
