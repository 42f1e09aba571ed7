package learning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-io/lumina-core/internal/schedule"
)

// Sample-count floors before a rate or list membership is trusted.
const (
	minTriggerSamples = 3
	minPatternSamples = 2
	minEffectSamples  = 3
	minHourSamples    = 3
)

// List-membership thresholds over per-key reject/accept rates.
const (
	effectAvoidRejectRate  = 0.5 // avoided when rejected more than half the time
	effectPreferRejectRate = 0.2 // preferred when rejected less than a fifth of the time
	hourPreferAcceptRate   = 0.7
)

// Logger is the minimal logging interface the engine needs.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Engine owns the feedback history and the derived preferences cache.
type Engine struct {
	repo   Repository
	logger Logger

	mu    sync.RWMutex
	cache map[string]*Preferences
}

// NewEngine creates a learning engine over the given repository.
func NewEngine(repo Repository, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]*Preferences),
	}
}

// RecordFeedback appends one record and recomputes the user's preferences
// from the full history.
func (e *Engine) RecordFeedback(ctx context.Context, rec FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if !validFeedbackTypes[rec.FeedbackType] {
		return fmt.Errorf("learning: unknown feedback type %q", rec.FeedbackType)
	}

	if err := e.repo.AppendFeedback(ctx, rec); err != nil {
		return err
	}

	records, err := e.repo.ListFeedback(ctx, rec.UserID)
	if err != nil {
		return err
	}

	prefs := Recompute(records, time.Now().UTC())
	if err := e.repo.SaveSnapshot(ctx, rec.UserID, prefs); err != nil {
		return err
	}

	e.mu.Lock()
	e.cache[rec.UserID] = prefs
	e.mu.Unlock()

	e.logger.Debug("preferences recomputed",
		"user_id", rec.UserID, "feedback_count", prefs.TotalFeedbackCount)
	return nil
}

// Preferences returns the user's current derived preferences. A user with no
// feedback yet gets an empty snapshot, not an error.
func (e *Engine) Preferences(ctx context.Context, userID string) (*Preferences, error) {
	e.mu.RLock()
	cached, ok := e.cache[userID]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prefs, err := e.repo.GetSnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			prefs = emptyPreferences()
		} else {
			return nil, err
		}
	}

	e.mu.Lock()
	e.cache[userID] = prefs
	e.mu.Unlock()
	return prefs, nil
}

func emptyPreferences() *Preferences {
	return &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{},
		PatternSuccessRates: map[string]float64{},
	}
}

// Recompute derives preferences from scratch over a feedback history.
func Recompute(records []FeedbackRecord, now time.Time) *Preferences {
	prefs := emptyPreferences()
	prefs.LastUpdated = now
	prefs.TotalFeedbackCount = len(records)

	type tally struct{ total, success, rejected int }
	triggers := map[schedule.Trigger]*tally{}
	patterns := map[string]*tally{}
	effects := map[int]*tally{}
	hours := map[int]*tally{}

	bump := func(t *tally, rec FeedbackRecord) {
		t.total++
		if rec.isSuccess() {
			t.success++
		}
		if rec.FeedbackType == FeedbackRejected {
			t.rejected++
		}
	}

	for _, rec := range records {
		if triggers[rec.Trigger] == nil {
			triggers[rec.Trigger] = &tally{}
		}
		bump(triggers[rec.Trigger], rec)

		if rec.PatternName != "" {
			if patterns[rec.PatternName] == nil {
				patterns[rec.PatternName] = &tally{}
			}
			bump(patterns[rec.PatternName], rec)
		}

		if rec.EffectID != nil {
			if effects[*rec.EffectID] == nil {
				effects[*rec.EffectID] = &tally{}
			}
			bump(effects[*rec.EffectID], rec)
		}

		if hours[rec.ScheduledHour] == nil {
			hours[rec.ScheduledHour] = &tally{}
		}
		bump(hours[rec.ScheduledHour], rec)
	}

	for trigger, t := range triggers {
		if t.total >= minTriggerSamples {
			prefs.TriggerSuccessRates[trigger] = float64(t.success) / float64(t.total)
		}
	}
	for name, t := range patterns {
		if t.total >= minPatternSamples {
			prefs.PatternSuccessRates[name] = float64(t.success) / float64(t.total)
		}
	}
	for effect, t := range effects {
		if t.total < minEffectSamples {
			continue
		}
		rejectRate := float64(t.rejected) / float64(t.total)
		switch {
		case rejectRate > effectAvoidRejectRate:
			prefs.AvoidedEffectIDs = append(prefs.AvoidedEffectIDs, effect)
		case rejectRate < effectPreferRejectRate:
			prefs.PreferredEffectIDs = append(prefs.PreferredEffectIDs, effect)
		}
	}
	for hour, t := range hours {
		if t.total >= minHourSamples && float64(t.success)/float64(t.total) > hourPreferAcceptRate {
			prefs.PreferredHours = append(prefs.PreferredHours, hour)
		}
	}

	sort.Ints(prefs.AvoidedEffectIDs)
	sort.Ints(prefs.PreferredEffectIDs)
	sort.Ints(prefs.PreferredHours)
	return prefs
}
