package pattern

import (
	"fmt"
	"strings"

	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// buildPrompt renders the designer prompt for an event. The prompt is plain
// prose so designer backends can be swapped without a schema change.
func buildPrompt(p *profile.Profile, ev events.CalendarEvent, colorsAllowed bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Design a lighting pattern for %q", ev.Name)
	switch ev.Type {
	case events.TypeSportGame:
		fmt.Fprintf(&b, ", a game night for the %s", ev.TeamName)
	case events.TypeSeasonal:
		b.WriteString(", a seasonal ambient scene")
	case events.TypeCustom:
		b.WriteString(", a personal occasion")
	}
	b.WriteString(". ")

	if len(ev.SuggestedColors) > 0 {
		fmt.Fprintf(&b, "Suggested colors: %s. ", strings.Join(ev.SuggestedColors, ", "))
	}

	fmt.Fprintf(&b, "Energy level %.1f out of 1.0", p.VibeLevel)
	switch {
	case p.VibeLevel < 0.3:
		b.WriteString(" (keep it subtle and calm)")
	case p.VibeLevel > 0.7:
		b.WriteString(" (bold and dynamic is welcome)")
	}
	b.WriteString(". ")

	if len(p.PreferredStyles) > 0 {
		fmt.Fprintf(&b, "Preferred styles: %s. ", strings.Join(p.PreferredStyles, ", "))
	}
	if len(p.DislikedStyles) > 0 {
		fmt.Fprintf(&b, "Avoid: %s. ", strings.Join(p.DislikedStyles, ", "))
	}

	if !colorsAllowed {
		b.WriteString("Colors are restricted to white for this date; use warm white tones only.")
	}

	return strings.TrimSpace(b.String())
}

// matchesFavorite reports a case-insensitive substring match in either
// direction between an event name and the favorites list.
func matchesFavorite(name string, favorites []string) bool {
	lower := strings.ToLower(name)
	for _, fav := range favorites {
		f := strings.ToLower(fav)
		if strings.Contains(lower, f) || strings.Contains(f, lower) {
			return true
		}
	}
	return false
}
