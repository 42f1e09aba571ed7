package events

import (
	"context"
	"sort"
	"time"

	"github.com/lumina-io/lumina-core/internal/profile"
)

// Logger is the minimal logging interface the aggregator needs.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// HolidayFeed supplies extra named holidays from an external calendar.
type HolidayFeed interface {
	HolidaysInRange(ctx context.Context, start, end time.Time, favorites []string) ([]CalendarEvent, error)
}

// Aggregator merges holiday, custom, sports, and seasonal events into a
// single prioritized sequence for a profile and date range.
type Aggregator struct {
	sports SportsProvider
	feed   HolidayFeed
	logger Logger
}

// NewAggregator creates an aggregator. The sports provider and holiday feed
// may both be nil; aggregation then draws only on the built-in catalogs.
func NewAggregator(sports SportsProvider, feed HolidayFeed, logger Logger) *Aggregator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Aggregator{sports: sports, feed: feed, logger: logger}
}

// EventsInRange returns the conflict-resolved event sequence for [start, end),
// sorted by date then priority. Upstream failures (sports provider, holiday
// feed, malformed custom recurrences) degrade to fewer events, never to an
// error: a profile with nothing configured still receives seasonal events.
func (a *Aggregator) EventsInRange(ctx context.Context, p *profile.Profile, start, end time.Time) []CalendarEvent {
	var all []CalendarEvent

	all = append(all, holidaysInRange(start, end, p.FavoriteHolidays)...)

	all = append(all, customHolidaysInRange(start, end, p.CustomHolidays, func(name string, err error) {
		a.logger.Warn("skipping custom holiday with invalid recurrence", "holiday", name, "error", err)
	})...)

	all = append(all, a.gameEvents(ctx, p, start, end)...)

	if a.feed != nil {
		feedEvents, err := a.feed.HolidaysInRange(ctx, start, end, p.FavoriteHolidays)
		if err != nil {
			a.logger.Warn("holiday feed unavailable", "error", err)
		} else {
			all = append(all, dedupeByName(all, feedEvents)...)
		}
	}

	all = append(all, seasonalEventsInRange(start, end)...)

	sort.SliceStable(all, func(i, j int) bool {
		di, dj := startOfDay(all[i].Date), startOfDay(all[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return all[i].Priority < all[j].Priority
	})

	resolved := resolveConflicts(all)
	a.logger.Debug("aggregated events",
		"raw_count", len(all), "resolved_count", len(resolved),
		"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))
	return resolved
}

func (a *Aggregator) gameEvents(ctx context.Context, p *profile.Profile, start, end time.Time) []CalendarEvent {
	if a.sports == nil || len(p.FollowedTeams) == 0 {
		return nil
	}

	games, err := a.sports.GamesInRange(ctx, p.FollowedTeams, start, end)
	if err != nil {
		a.logger.Warn("sports provider unavailable", "error", err)
		return nil
	}

	out := make([]CalendarEvent, 0, len(games))
	for _, g := range games {
		priority := PriorityGameUnranked
		if rank := p.TeamRank(g.TeamName); rank >= 0 {
			priority = PriorityGameBase + rank
		}
		out = append(out, CalendarEvent{
			Name:            g.TeamName + " vs " + g.Opponent,
			Date:            g.StartTime,
			Type:            TypeSportGame,
			TeamName:        g.TeamName,
			SuggestedColors: append([]string(nil), p.TeamColors[g.TeamName]...),
			Priority:        priority,
		})
	}
	return out
}

// resolveConflicts groups same-day events and keeps at most two per day: the
// lowest-priority-number winner, plus a runner-up only when it has a
// different type and its priority is within 5 of the winner's.
func resolveConflicts(sorted []CalendarEvent) []CalendarEvent {
	var out []CalendarEvent
	for i := 0; i < len(sorted); {
		day := startOfDay(sorted[i].Date)
		j := i
		for j < len(sorted) && startOfDay(sorted[j].Date).Equal(day) {
			j++
		}

		group := sorted[i:j]
		winner := group[0]
		out = append(out, winner)

		for _, candidate := range group[1:] {
			if candidate.Type != winner.Type && candidate.Priority-winner.Priority <= 5 {
				out = append(out, candidate)
				break
			}
		}
		i = j
	}
	return out
}

// dedupeByName drops feed events whose name already appears in the existing
// set, so the built-in catalog wins over the external feed.
func dedupeByName(existing, incoming []CalendarEvent) []CalendarEvent {
	seen := make(map[string]bool, len(existing))
	for _, ev := range existing {
		seen[normalizeName(ev.Name)] = true
	}
	var out []CalendarEvent
	for _, ev := range incoming {
		if seen[normalizeName(ev.Name)] {
			continue
		}
		seen[normalizeName(ev.Name)] = true
		out = append(out, ev)
	}
	return out
}

func normalizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r == ' ' || r == '\'' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
