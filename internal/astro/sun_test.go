package astro

import (
	"errors"
	"testing"
	"time"
)

// denver is a mid-latitude test location (39.74N, 104.99W).
const (
	denverLat = 39.7392
	denverLon = -104.9903
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("loading location %s: %v", name, err)
	}
	return loc
}

func TestSunTimesSummerDay(t *testing.T) {
	loc := mustLoadLocation(t, "America/Denver")
	date := time.Date(2026, time.June, 21, 0, 0, 0, 0, loc)

	sunrise, sunset, err := SunTimes(date, denverLat, denverLon)
	if err != nil {
		t.Fatalf("SunTimes() error = %v", err)
	}

	if !sunrise.Before(sunset) {
		t.Errorf("sunrise %v not before sunset %v", sunrise, sunset)
	}

	// Summer solstice in Denver: sunrise in the 05:00-06:30 window,
	// sunset in the 20:00-21:30 window.
	if h := sunrise.Hour(); h < 5 || h > 6 {
		t.Errorf("sunrise hour = %d, want 5-6 (got %v)", h, sunrise)
	}
	if h := sunset.Hour(); h < 20 || h > 21 {
		t.Errorf("sunset hour = %d, want 20-21 (got %v)", h, sunset)
	}

	// Both must fall on the requested calendar day.
	if sunrise.Day() != 21 || sunset.Day() != 21 {
		t.Errorf("sun times not on requested day: %v, %v", sunrise, sunset)
	}

	// Day length should be roughly 14.5-15.5 hours at the solstice.
	dayLen := sunset.Sub(sunrise)
	if dayLen < 14*time.Hour || dayLen > 16*time.Hour {
		t.Errorf("day length = %v, want ~15h", dayLen)
	}
}

func TestSunTimesWinterShorterThanSummer(t *testing.T) {
	loc := mustLoadLocation(t, "America/Denver")

	summer := time.Date(2026, time.June, 21, 0, 0, 0, 0, loc)
	winter := time.Date(2026, time.December, 21, 0, 0, 0, 0, loc)

	sr1, ss1, err := SunTimes(summer, denverLat, denverLon)
	if err != nil {
		t.Fatalf("summer SunTimes() error = %v", err)
	}
	sr2, ss2, err := SunTimes(winter, denverLat, denverLon)
	if err != nil {
		t.Fatalf("winter SunTimes() error = %v", err)
	}

	if ss2.Sub(sr2) >= ss1.Sub(sr1) {
		t.Errorf("winter day (%v) not shorter than summer day (%v)", ss2.Sub(sr2), ss1.Sub(sr1))
	}
}

func TestSunTimesPolarNight(t *testing.T) {
	// Longyearbyen in late December: sun never rises.
	date := time.Date(2026, time.December, 21, 0, 0, 0, 0, time.UTC)

	_, _, err := SunTimes(date, 78.22, 15.63)
	if !errors.Is(err, ErrPolarNight) {
		t.Errorf("SunTimes() error = %v, want ErrPolarNight", err)
	}
}

func TestSunTimesPolarDay(t *testing.T) {
	// Longyearbyen in late June: sun never sets.
	date := time.Date(2026, time.June, 21, 0, 0, 0, 0, time.UTC)

	_, _, err := SunTimes(date, 78.22, 15.63)
	if !errors.Is(err, ErrPolarDay) {
		t.Errorf("SunTimes() error = %v, want ErrPolarDay", err)
	}
}

func TestSunsetFallback(t *testing.T) {
	// Polar night: Sunset falls back to 19:00 local so schedule
	// generation always has a trigger time.
	date := time.Date(2026, time.December, 21, 0, 0, 0, 0, time.UTC)

	sunset := Sunset(date, 78.22, 15.63)
	if sunset.Hour() != 19 || sunset.Day() != 21 {
		t.Errorf("fallback sunset = %v, want 19:00 on day 21", sunset)
	}
}

func TestSunriseBeforeNoon(t *testing.T) {
	loc := mustLoadLocation(t, "America/Denver")
	date := time.Date(2026, time.March, 15, 0, 0, 0, 0, loc)

	sunrise := Sunrise(date, denverLat, denverLon)
	if sunrise.Hour() >= 12 {
		t.Errorf("sunrise = %v, want morning", sunrise)
	}
}
