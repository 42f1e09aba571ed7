// Package events aggregates calendar events relevant to a profile's lighting
// plans: named holidays, user-authored recurring holidays, sports games for
// followed teams, and fixed seasonal markers.
//
// The aggregator merges the four sources for a date range into a single
// sequence sorted by date and priority, then resolves same-day conflicts so
// a day carries at most two events. Events are produced fresh per query and
// never persisted.
package events
