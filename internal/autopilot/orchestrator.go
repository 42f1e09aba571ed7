package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lumina-io/lumina-core/internal/astro"
	"github.com/lumina-io/lumina-core/internal/compliance"
	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/learning"
	"github.com/lumina-io/lumina-core/internal/light"
	"github.com/lumina-io/lumina-core/internal/pattern"
	"github.com/lumina-io/lumina-core/internal/profile"
	"github.com/lumina-io/lumina-core/internal/schedule"
)

// ApplySink delivers a configuration to a profile's controllers. It is an
// opaque, possibly-failing remote call; the orchestrator logs failures but
// never retries.
type ApplySink interface {
	Apply(ctx context.Context, profileID string, cfg light.Config) error
}

// SuggestionSurface is the outbound channel pending items are published to.
type SuggestionSurface interface {
	PublishPending(userID string, items []schedule.Item)
	ClearPending(userID string)
}

// Analytics receives fire-and-forget measurements. Implementations must not
// block; a slow analytics write never stalls the scheduling path.
type Analytics interface {
	WriteFeedback(userID, trigger, feedbackType string)
	WriteApplyResult(userID, trigger string, success bool, latency time.Duration)
	WriteRegeneration(userID string, itemCount, eventCount int, forced bool)
}

// Logger is the logging interface the orchestrator needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config tunes the control loop.
type Config struct {
	// TickSchedule is the cron expression for the periodic scan.
	TickSchedule string
	// RegenerationInterval is how long a generated week stays fresh.
	RegenerationInterval time.Duration
	// LateGrace is how far past its time an item may still fire.
	LateGrace time.Duration
	// ApplyTimeout bounds each device-apply call.
	ApplyTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TickSchedule:         "* * * * *",
		RegenerationInterval: 7 * 24 * time.Hour,
		LateGrace:            2 * time.Hour,
		ApplyTimeout:         10 * time.Second,
	}
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Profiles   profile.Repository
	Aggregator *events.Aggregator
	Generator  *pattern.Generator
	Learner    *learning.Engine
	Sink       ApplySink
	Surface    SuggestionSurface
	Runs       RunRepository
	Analytics  Analytics // optional
	Logger     Logger
}

// Orchestrator drives weekly regeneration and item firing for all profiles.
type Orchestrator struct {
	cfg  Config
	deps Deps

	cron *cron.Cron
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	regening map[string]bool
}

// NewOrchestrator creates the control loop. Call Start to begin ticking.
func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	if cfg.TickSchedule == "" {
		cfg.TickSchedule = DefaultConfig().TickSchedule
	}
	if cfg.RegenerationInterval <= 0 {
		cfg.RegenerationInterval = DefaultConfig().RegenerationInterval
	}
	if cfg.LateGrace <= 0 {
		cfg.LateGrace = DefaultConfig().LateGrace
	}
	if cfg.ApplyTimeout <= 0 {
		cfg.ApplyTimeout = DefaultConfig().ApplyTimeout
	}
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*session),
		regening: make(map[string]bool),
	}
}

// Start runs an initial regeneration pass and begins the periodic tick.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.regenerateAll(ctx, false)

	o.cron = cron.New()
	_, err := o.cron.AddFunc(o.cfg.TickSchedule, func() { o.tick(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling tick: %w", err)
	}
	o.cron.Start()
	o.deps.Logger.Info("autopilot started", "tick_schedule", o.cfg.TickSchedule)
	return nil
}

// Stop halts the tick loop and cancels every armed timer. No item fires
// after Stop returns.
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, sess := range o.sessions {
		sess.close()
	}
	o.deps.Logger.Info("autopilot stopped")
}

// tick fires due items and re-checks regeneration freshness.
func (o *Orchestrator) tick(ctx context.Context) {
	now := o.now()

	o.mu.Lock()
	sessions := make([]*session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		sessions = append(sessions, sess)
	}
	o.mu.Unlock()

	for _, sess := range sessions {
		for _, id := range sess.scheduledBefore(now) {
			o.fireItem(sess, id)
		}
	}

	o.regenerateAll(ctx, false)
}

// regenerateAll runs the freshness check for every profile.
func (o *Orchestrator) regenerateAll(ctx context.Context, force bool) {
	profiles, err := o.deps.Profiles.List(ctx)
	if err != nil {
		o.deps.Logger.Error("listing profiles failed", "error", err)
		return
	}
	for i := range profiles {
		if err := o.CheckAndRegenerate(ctx, profiles[i].ID, force); err != nil {
			o.deps.Logger.Error("regeneration failed",
				"user_id", profiles[i].ID, "error", err)
		}
	}
}

// CheckAndRegenerate regenerates the week's schedule for a profile when no
// prior generation exists, the last one is stale, or force is set. A forced
// regeneration clears all pending suggestions before producing new ones.
// A disabled profile is a no-op, not an error. Concurrent calls for the same
// user collapse into one regeneration.
func (o *Orchestrator) CheckAndRegenerate(ctx context.Context, userID string, force bool) error {
	p, err := o.deps.Profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return ErrNoProfile
		}
		return err
	}

	if !p.AutopilotEnabled {
		o.disableUser(userID)
		return nil
	}

	now := o.now()
	needs := force ||
		p.LastScheduleGenerated == nil ||
		now.Sub(*p.LastScheduleGenerated) >= o.cfg.RegenerationInterval
	if !needs {
		return nil
	}

	o.mu.Lock()
	if o.regening[userID] {
		o.mu.Unlock()
		return nil
	}
	o.regening[userID] = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.regening, userID)
		o.mu.Unlock()
	}()

	if force {
		o.clearPending(userID)
	}

	return o.regenerate(ctx, p, force)
}

// ForceRegenerate discards the current week and produces a fresh one.
func (o *Orchestrator) ForceRegenerate(ctx context.Context, userID string) error {
	return o.CheckAndRegenerate(ctx, userID, true)
}

// clearPending drops every pending suggestion so stale and fresh
// suggestions are never visible together.
func (o *Orchestrator) clearPending(userID string) {
	sess := o.existingSession(userID)
	if sess != nil {
		for _, id := range sess.pendingIDs() {
			sess.update(id, func(item *schedule.Item) {
				item.State = schedule.StateDropped
			})
		}
	}
	if o.deps.Surface != nil {
		o.deps.Surface.ClearPending(userID)
	}
}

// regenerate runs the full pipeline: aggregate events, generate patterns,
// enforce budgets, re-blend confidence, install the new session, and surface
// or schedule items per autonomy level.
func (o *Orchestrator) regenerate(ctx context.Context, p *profile.Profile, forced bool) error {
	now := o.now()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekEnd := weekStart.AddDate(0, 0, 7)

	evs := o.deps.Aggregator.EventsInRange(ctx, p, weekStart, weekEnd)

	eng, err := compliance.New(p.Compliance)
	if err != nil {
		o.deps.Logger.Warn("invalid compliance settings, treating as disabled",
			"user_id", p.ID, "error", err)
		eng, _ = compliance.New(profile.ComplianceSettings{})
	}

	items := o.buildItems(ctx, p, eng, evs, now)

	prefs, err := o.deps.Learner.Preferences(ctx, p.ID)
	if err != nil {
		o.deps.Logger.Warn("learned preferences unavailable", "user_id", p.ID, "error", err)
		prefs = nil
	}
	for _, item := range items {
		item.ConfidenceScore = learning.AdjustConfidence(item.ConfidenceScore, *item, prefs)
	}

	sess := o.sessionFor(p.ID)
	sess.replace(items)
	o.dispatch(p, sess, items)

	if err := o.deps.Profiles.SetLastGenerated(ctx, p.ID, now); err != nil {
		return fmt.Errorf("marking schedule generated: %w", err)
	}
	if o.deps.Runs != nil {
		run := Run{
			ID:         uuid.NewString(),
			UserID:     p.ID,
			StartedAt:  now,
			ItemCount:  len(items),
			EventCount: len(evs),
			Forced:     forced,
		}
		if err := o.deps.Runs.Record(ctx, run); err != nil {
			o.deps.Logger.Warn("recording run failed", "user_id", p.ID, "error", err)
		}
	}
	if o.deps.Analytics != nil {
		o.deps.Analytics.WriteRegeneration(p.ID, len(items), len(evs), forced)
	}

	o.deps.Logger.Info("schedule regenerated",
		"user_id", p.ID, "items", len(items), "events", len(evs), "forced", forced)
	return nil
}

// buildItems turns events plus the daily baseline and default fill-ins into
// schedule items, honoring the per-day change budget and minimum spacing.
func (o *Orchestrator) buildItems(ctx context.Context, p *profile.Profile, eng *compliance.Engine, evs []events.CalendarEvent, now time.Time) []*schedule.Item {
	tolerance := toleranceFor(p.ChangeTolerance)
	var items []*schedule.Item

	// Standing daily baseline: warm white at sunset, every day.
	baseline := o.deps.Generator.DailyBaseline(p)
	sunset := astro.Sunset(now, p.Latitude, p.Longitude)
	items = append(items, o.newItem(p, eng, itemSpec{
		candidate:  baseline,
		fireAt:     sunset,
		repeatDays: allWeekdays,
		trigger:    schedule.TriggerSunset,
		reason:     "Daily warm white at sunset",
	}, now))

	// Event-driven items, capped per day and spaced apart across days.
	// The aggregator emits events ordered by (date, priority), so when
	// spacing forces a choice the earlier, higher-priority event wins.
	perDay := map[string]int{}
	busyDays := map[string]bool{}
	lastEventDay := time.Time{}
	for _, ev := range evs {
		day := startOfDay(ev.Date)
		dayKey := day.Format(time.DateOnly)
		if perDay[dayKey] >= tolerance.MaxChangesPerDay {
			continue
		}
		// Same-day items are governed by the day budget above; across
		// days the minimum spacing holds. The baseline is exempt.
		if !lastEventDay.IsZero() && !day.Equal(lastEventDay) &&
			daysApart(lastEventDay, day) < tolerance.MinDaysBetweenChanges {
			continue
		}
		perDay[dayKey]++
		busyDays[dayKey] = true
		lastEventDay = day

		candidate := o.deps.Generator.ForEvent(ctx, p, eng, ev)
		items = append(items, o.newItem(p, eng, itemSpec{
			candidate: candidate,
			fireAt:    o.eventFireTime(p, ev),
			trigger:   triggerForEvent(ev),
			reason:    reasonFor(ev),
		}, now))
	}

	// Default fill-ins for quiet days, spaced apart per the tolerance rule.
	lastFill := time.Time{}
	for day := 0; day < 7; day++ {
		date := startOfDay(now).AddDate(0, 0, day)
		if busyDays[date.Format(time.DateOnly)] {
			lastFill = date
			continue
		}
		if !lastFill.IsZero() && int(date.Sub(lastFill).Hours()/24) < tolerance.MinDaysBetweenChanges {
			continue
		}
		if day == 0 {
			// Today is already covered by the baseline.
			lastFill = date
			continue
		}
		lastFill = date

		fill := o.deps.Generator.DailyBaseline(p)
		trigger := fillTriggerFor(date)
		name := "Weeknight Glow"
		if trigger == schedule.TriggerWeekend {
			name = "Weekend Glow"
		}
		fill.PatternName = name
		items = append(items, o.newItem(p, eng, itemSpec{
			candidate: fill,
			fireAt:    astro.Sunset(date, p.Latitude, p.Longitude),
			trigger:   trigger,
			reason:    "Default evening scene",
		}, now))
	}

	sortItemsByTime(items)
	return items
}

type itemSpec struct {
	candidate  pattern.Candidate
	fireAt     time.Time
	repeatDays []time.Weekday
	trigger    schedule.Trigger
	reason     string
}

// newItem finalizes a candidate: shifts it out of quiet hours, rewrites the
// configuration for compliance, and captures colors and effect for feedback.
func (o *Orchestrator) newItem(p *profile.Profile, eng *compliance.Engine, spec itemSpec, now time.Time) *schedule.Item {
	fireAt := spec.fireAt
	if !eng.IsTimeAllowed(fireAt) {
		fireAt = eng.NextAllowedTime(fireAt)
	}
	cfg := eng.RewriteForCompliance(spec.candidate.Config, fireAt, p.VibeLevel)

	item := &schedule.Item{
		ID:              uuid.NewString(),
		ScheduledTime:   fireAt,
		RepeatDays:      spec.repeatDays,
		PatternName:     spec.candidate.PatternName,
		Reason:          spec.reason,
		Trigger:         spec.trigger,
		ConfidenceScore: spec.candidate.Confidence,
		Configuration:   cfg,
		CreatedAt:       now,
	}
	if len(cfg.Segments) > 0 {
		item.Colors = append([]string(nil), cfg.Segments[0].Colors...)
		effect := cfg.Segments[0].EffectID
		item.EffectID = &effect
	}
	return item
}

// eventFireTime picks when an event's pattern should apply: games at their
// start time, dated events at sunset.
func (o *Orchestrator) eventFireTime(p *profile.Profile, ev events.CalendarEvent) time.Time {
	if ev.Type == events.TypeSportGame && (ev.Date.Hour() != 0 || ev.Date.Minute() != 0) {
		return ev.Date
	}
	return astro.Sunset(ev.Date, p.Latitude, p.Longitude)
}

func reasonFor(ev events.CalendarEvent) string {
	switch ev.Type {
	case events.TypeSportGame:
		return "Game day: " + ev.Name
	case events.TypeSeasonal:
		return "Seasonal: " + ev.Name
	case events.TypeCustom:
		return "Your occasion: " + ev.Name
	default:
		return "Holiday: " + ev.Name
	}
}

// dispatch assigns each item's state per autonomy level: proactive profiles
// auto-schedule high-confidence items, suggest-level profiles see pending
// suggestions, and level zero computes everything but surfaces nothing.
func (o *Orchestrator) dispatch(p *profile.Profile, sess *session, items []*schedule.Item) {
	var pending []schedule.Item

	for _, item := range items {
		switch {
		case p.AutonomyLevel == profile.AutonomyOff:
			item.State = schedule.StateWithheld
		case p.AutonomyLevel == profile.AutonomyProactive && item.ConfidenceScore >= autoApplyThreshold:
			item.State = schedule.StateScheduled
			o.armItemTimer(sess, item.ID, item.ScheduledTime)
		default:
			item.State = schedule.StatePending
			pending = append(pending, item.Clone())
		}
	}

	if len(pending) > 0 && o.deps.Surface != nil {
		o.deps.Surface.PublishPending(p.ID, pending)
	}
}

func (o *Orchestrator) armItemTimer(sess *session, itemID string, at time.Time) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	sess.armTimer(itemID, d, func() { o.fireItem(sess, itemID) })
}

// fireItem is the autonomous firing path (timers and the periodic scan).
// Items past the grace window are dropped silently.
func (o *Orchestrator) fireItem(sess *session, itemID string) {
	o.fire(sess, itemID, false)
}

// fire applies one scheduled item exactly once. The grace window only
// governs autonomous fires; an explicit approval is the user asking for
// the pattern now, however stale. Apply failures are logged and the item
// stays un-applied.
func (o *Orchestrator) fire(sess *session, itemID string, viaApproval bool) {
	if !sess.claimFire(itemID) {
		return
	}
	item, ok := sess.get(itemID)
	if !ok {
		return
	}

	now := o.now()
	if !viaApproval && now.Sub(item.ScheduledTime) > o.cfg.LateGrace {
		sess.update(itemID, func(i *schedule.Item) { i.State = schedule.StateDropped })
		o.deps.Logger.Debug("dropping stale item",
			"user_id", sess.userID, "item_id", itemID,
			"scheduled", item.ScheduledTime, "now", now)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.ApplyTimeout)
	defer cancel()

	start := o.now()
	err := o.deps.Sink.Apply(ctx, sess.userID, item.Configuration)
	latency := o.now().Sub(start)

	if o.deps.Analytics != nil {
		o.deps.Analytics.WriteApplyResult(sess.userID, string(item.Trigger), err == nil, latency)
	}
	if err != nil {
		o.deps.Logger.Error("apply failed",
			"user_id", sess.userID, "item_id", itemID, "pattern", item.PatternName, "error", err)
		return
	}

	autoApplied := !item.IsApproved
	sess.update(itemID, func(i *schedule.Item) {
		i.State = schedule.StateApplied
		i.WasAutoApplied = autoApplied
	})
	o.deps.Logger.Info("pattern applied",
		"user_id", sess.userID, "pattern", item.PatternName, "trigger", item.Trigger)

	if autoApplied {
		o.recordFeedback(sess.userID, item, learning.FeedbackAutoApplied)
	}

	// Repeating items (the daily baseline) go back on the clock for their
	// next weekday until the next regeneration replaces the cycle. The
	// re-armed time keeps the same clock time; sunset drift within a week
	// is minutes and the weekly rebuild recomputes it.
	if next, ok := nextRepeat(item.ScheduledTime, item.RepeatDays); ok {
		sess.rearm(itemID, next)
		o.armItemTimer(sess, itemID, next)
	}
}

// nextRepeat finds the first day after the given occurrence whose weekday
// is in the repeat set.
func nextRepeat(after time.Time, days []time.Weekday) (time.Time, bool) {
	if len(days) == 0 {
		return time.Time{}, false
	}
	allowed := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		allowed[d] = true
	}
	for i := 1; i <= 7; i++ {
		next := after.AddDate(0, 0, i)
		if allowed[next.Weekday()] {
			return next, true
		}
	}
	return time.Time{}, false
}

// Approve accepts a pending suggestion. Future items are scheduled for
// timer firing; past-due items apply immediately.
func (o *Orchestrator) Approve(ctx context.Context, userID, itemID string) error {
	sess := o.existingSession(userID)
	if sess == nil {
		return ErrItemNotFound
	}
	item, ok := sess.get(itemID)
	if !ok {
		return ErrItemNotFound
	}
	if item.State != schedule.StatePending {
		return ErrNotPending
	}

	sess.update(itemID, func(i *schedule.Item) {
		i.IsApproved = true
		i.State = schedule.StateScheduled
	})
	o.recordFeedback(userID, item, learning.FeedbackAccepted)

	if o.now().Before(item.ScheduledTime) {
		o.armItemTimer(sess, itemID, item.ScheduledTime)
		return nil
	}
	o.fire(sess, itemID, true)
	return nil
}

// Reject declines a pending suggestion and feeds the decision to learning.
func (o *Orchestrator) Reject(ctx context.Context, userID, itemID string) error {
	sess := o.existingSession(userID)
	if sess == nil {
		return ErrItemNotFound
	}
	item, ok := sess.get(itemID)
	if !ok {
		return ErrItemNotFound
	}
	if item.State != schedule.StatePending {
		return ErrNotPending
	}

	sess.update(itemID, func(i *schedule.Item) { i.State = schedule.StateRejected })
	sess.cancelTimer(itemID)
	o.recordFeedback(userID, item, learning.FeedbackRejected)
	return nil
}

// Schedule returns a consistent snapshot of the user's active week.
func (o *Orchestrator) Schedule(userID string) []schedule.Item {
	sess := o.existingSession(userID)
	if sess == nil {
		return nil
	}
	return sess.snapshot()
}

// Pending returns the items currently awaiting a decision.
func (o *Orchestrator) Pending(userID string) []schedule.Item {
	var out []schedule.Item
	for _, item := range o.Schedule(userID) {
		if item.State == schedule.StatePending {
			out = append(out, item)
		}
	}
	return out
}

// recordFeedback writes the learning record and mirrors it to analytics.
// Learning failures are logged, never propagated: feedback loss must not
// break the scheduling path.
func (o *Orchestrator) recordFeedback(userID string, item schedule.Item, feedback learning.FeedbackType) {
	rec := learning.FeedbackRecord{
		UserID:         userID,
		ScheduleItemID: item.ID,
		PatternName:    item.PatternName,
		Trigger:        item.Trigger,
		FeedbackType:   feedback,
		EffectID:       item.EffectID,
		ScheduledHour:  item.ScheduledTime.Hour(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.deps.Learner.RecordFeedback(ctx, rec); err != nil {
		o.deps.Logger.Warn("recording feedback failed",
			"user_id", userID, "item_id", item.ID, "error", err)
	}
	if o.deps.Analytics != nil {
		o.deps.Analytics.WriteFeedback(userID, string(item.Trigger), string(feedback))
	}
}

// disableUser tears down the session for a profile that turned autopilot
// off; armed timers are cancelled and nothing further fires.
func (o *Orchestrator) disableUser(userID string) {
	o.mu.Lock()
	sess, ok := o.sessions[userID]
	if ok {
		delete(o.sessions, userID)
	}
	o.mu.Unlock()
	if ok {
		sess.close()
	}
}

func (o *Orchestrator) sessionFor(userID string) *session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if sess, ok := o.sessions[userID]; ok {
		return sess
	}
	sess := newSession(userID)
	o.sessions[userID] = sess
	return sess
}

func (o *Orchestrator) existingSession(userID string) *session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[userID]
}

func sortItemsByTime(items []*schedule.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScheduledTime.Before(items[j].ScheduledTime)
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysApart counts whole calendar days between two midnight-normalized
// dates.
func daysApart(a, b time.Time) int {
	if a.After(b) {
		a, b = b, a
	}
	return int(b.Sub(a).Hours() / 24)
}
