// Package astro computes sunrise and sunset times for the installation's
// location. The autopilot uses these to resolve sunset-triggered schedule
// items (the daily baseline fires at sunset).
//
// The implementation is the standard sunrise-equation approximation:
// accurate to a couple of minutes at the latitudes permanent lighting
// installations are sold in, which is well within scheduling tolerance.
package astro

import (
	"errors"
	"math"
	"time"
)

// Sentinel errors for locations/dates where the sun does not cross the horizon.
var (
	// ErrPolarDay indicates the sun never sets on the given date.
	ErrPolarDay = errors.New("astro: sun never sets on this date")

	// ErrPolarNight indicates the sun never rises on the given date.
	ErrPolarNight = errors.New("astro: sun never rises on this date")
)

const (
	// j2000 is the Julian date of the J2000 epoch (2000-01-01 12:00 UTC).
	j2000 = 2451545.0

	// earthObliquity is the axial tilt of Earth in degrees.
	earthObliquity = 23.44

	// sunAltitudeAtHorizon is the sun's centre altitude at apparent
	// sunrise/sunset, accounting for refraction and solar disc radius.
	sunAltitudeAtHorizon = -0.833

	secondsPerDay = 86400
)

// SunTimes returns sunrise and sunset for the calendar day of date at the
// given coordinates, expressed in date's location.
//
// Parameters:
//   - date: Any time within the target calendar day (its Location is used
//     for the returned times)
//   - latitude: Degrees north (negative south)
//   - longitude: Degrees east (negative west)
//
// Returns:
//   - sunrise, sunset: Local times on the same calendar day
//   - error: ErrPolarDay or ErrPolarNight when the sun does not cross the
//     horizon at this latitude on this date
func SunTimes(date time.Time, latitude, longitude float64) (sunrise, sunset time.Time, err error) {
	// Days since J2000, measured from local noon to keep the result on
	// the requested calendar day.
	year, month, day := date.Date()
	localNoon := time.Date(year, month, day, 12, 0, 0, 0, date.Location())
	n := float64(localNoon.Unix())/secondsPerDay + 2440587.5 - j2000

	// Mean solar noon at this longitude.
	jStar := n - longitude/360

	// Solar mean anomaly.
	m := math.Mod(357.5291+0.98560028*jStar, 360)

	// Equation of the centre.
	c := 1.9148*sinDeg(m) + 0.02*sinDeg(2*m) + 0.0003*sinDeg(3*m)

	// Ecliptic longitude.
	lambda := math.Mod(m+c+180+102.9372, 360)

	// Solar transit (local solar noon) as a Julian date.
	jTransit := j2000 + jStar + 0.0053*sinDeg(m) - 0.0069*sinDeg(2*lambda)

	// Declination of the sun.
	sinDecl := sinDeg(lambda) * sinDeg(earthObliquity)
	cosDecl := math.Cos(math.Asin(sinDecl))

	// Hour angle of sunrise/sunset.
	cosOmega := (sinDeg(sunAltitudeAtHorizon) - sinDeg(latitude)*sinDecl) /
		(cosDeg(latitude) * cosDecl)
	if cosOmega < -1 {
		return time.Time{}, time.Time{}, ErrPolarDay
	}
	if cosOmega > 1 {
		return time.Time{}, time.Time{}, ErrPolarNight
	}
	omega := math.Acos(cosOmega) * 180 / math.Pi

	jRise := jTransit - omega/360
	jSet := jTransit + omega/360

	return julianToTime(jRise, date.Location()), julianToTime(jSet, date.Location()), nil
}

// Sunset returns only the sunset time for the day of date.
// Falls back to 19:00 local if the sun does not set (polar edge cases),
// so schedule generation always has a usable trigger time.
func Sunset(date time.Time, latitude, longitude float64) time.Time {
	_, sunset, err := SunTimes(date, latitude, longitude)
	if err != nil {
		year, month, day := date.Date()
		return time.Date(year, month, day, 19, 0, 0, 0, date.Location())
	}
	return sunset
}

// Sunrise returns only the sunrise time for the day of date.
// Falls back to 07:00 local on polar edge cases.
func Sunrise(date time.Time, latitude, longitude float64) time.Time {
	sunrise, _, err := SunTimes(date, latitude, longitude)
	if err != nil {
		year, month, day := date.Date()
		return time.Date(year, month, day, 7, 0, 0, 0, date.Location())
	}
	return sunrise
}

// julianToTime converts a Julian date to a time.Time in the given location.
func julianToTime(jd float64, loc *time.Location) time.Time {
	unix := (jd - 2440587.5) * secondsPerDay
	sec := int64(unix)
	nsec := int64((unix - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).In(loc)
}

func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }
func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }
