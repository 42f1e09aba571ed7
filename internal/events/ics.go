package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ICSHolidaySource loads additional named holidays from an iCalendar feed,
// typically a public holiday calendar. Events from the feed merge with the
// built-in catalog: favorited names get favorite priority, everything else
// is treated as a major holiday.
type ICSHolidaySource struct {
	url    string
	client *http.Client
}

// NewICSHolidaySource creates a source that fetches the given feed URL.
func NewICSHolidaySource(url string, timeout time.Duration) *ICSHolidaySource {
	return &ICSHolidaySource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// HolidaysInRange fetches the feed and returns holiday events whose date
// falls in [start, end). Each VEVENT contributes its summary as the holiday
// name; recurrence expansion is not performed, matching the flat structure
// of public holiday feeds.
func (s *ICSHolidaySource) HolidaysInRange(ctx context.Context, start, end time.Time, favorites []string) ([]CalendarEvent, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing holiday calendar: %w", err)
	}

	var out []CalendarEvent
	for _, ve := range cal.Events() {
		name := ""
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			name = strings.TrimSpace(p.Value)
		}
		if name == "" {
			continue
		}

		at, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(startOfDay(start)) || !date.Before(end) {
			continue
		}

		priority := PriorityMajorHoliday
		if isFavorited(name, favorites) {
			priority = PriorityFavoriteHoliday
		}
		out = append(out, CalendarEvent{
			Name:     name,
			Date:     date,
			Type:     TypeHoliday,
			Priority: priority,
		})
	}
	return out, nil
}

func (s *ICSHolidaySource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building calendar request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching holiday calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching holiday calendar: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading holiday calendar: %w", err)
	}
	return body, nil
}
