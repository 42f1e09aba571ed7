package learning

import (
	"testing"
	"time"

	"github.com/lumina-io/lumina-core/internal/schedule"
)

func testItem(trigger schedule.Trigger, pattern string, effectID *int, hour int) schedule.Item {
	return schedule.Item{
		ID:            "item-1",
		Trigger:       trigger,
		PatternName:   pattern,
		EffectID:      effectID,
		ScheduledTime: time.Date(2025, 9, 8, hour, 0, 0, 0, time.UTC),
	}
}

func TestAdjustConfidenceTriggerBlend(t *testing.T) {
	prefs := &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{schedule.TriggerGameDay: 0.9},
		PatternSuccessRates: map[string]float64{},
	}
	item := testItem(schedule.TriggerGameDay, "Game Night", nil, 12)

	// 0.6*0.5 + 0.9*0.5 = 0.75
	got := AdjustConfidence(0.6, item, prefs)
	if diff := got - 0.75; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AdjustConfidence = %v, want 0.75", got)
	}
}

func TestAdjustConfidencePatternBlendAfterTrigger(t *testing.T) {
	prefs := &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{schedule.TriggerGameDay: 0.9},
		PatternSuccessRates: map[string]float64{"Game Night": 0.5},
	}
	item := testItem(schedule.TriggerGameDay, "Game Night", nil, 12)

	// (0.6*0.5 + 0.9*0.5) = 0.75, then 0.75*0.7 + 0.5*0.3 = 0.675
	got := AdjustConfidence(0.6, item, prefs)
	if diff := got - 0.675; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AdjustConfidence = %v, want 0.675", got)
	}
}

func TestAdjustConfidenceEffectAndHourAdjustments(t *testing.T) {
	strobe, solid := 23, 0
	prefs := &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{},
		PatternSuccessRates: map[string]float64{},
		AvoidedEffectIDs:    []int{strobe},
		PreferredEffectIDs:  []int{solid},
		PreferredHours:      []int{19},
	}

	avoided := testItem(schedule.TriggerHoliday, "X", &strobe, 12)
	if got := AdjustConfidence(0.6, avoided, prefs); got != 0.4 {
		t.Errorf("avoided effect: AdjustConfidence = %v, want 0.4", got)
	}

	preferred := testItem(schedule.TriggerHoliday, "X", &solid, 12)
	if got := AdjustConfidence(0.6, preferred, prefs); got != 0.7 {
		t.Errorf("preferred effect: AdjustConfidence = %v, want 0.7", got)
	}

	goodHour := testItem(schedule.TriggerHoliday, "X", nil, 19)
	if got := AdjustConfidence(0.6, goodHour, prefs); got != 0.65 {
		t.Errorf("preferred hour: AdjustConfidence = %v, want 0.65", got)
	}
}

func TestAdjustConfidenceClamps(t *testing.T) {
	strobe := 23
	prefs := &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{},
		PatternSuccessRates: map[string]float64{},
		AvoidedEffectIDs:    []int{strobe},
	}

	low := testItem(schedule.TriggerHoliday, "X", &strobe, 12)
	if got := AdjustConfidence(0.1, low, prefs); got != 0 {
		t.Errorf("AdjustConfidence below zero = %v, want clamped to 0", got)
	}

	solid := 0
	prefs.AvoidedEffectIDs = nil
	prefs.PreferredEffectIDs = []int{solid}
	prefs.PreferredHours = []int{12}
	high := testItem(schedule.TriggerHoliday, "X", &solid, 12)
	if got := AdjustConfidence(0.98, high, prefs); got != 1 {
		t.Errorf("AdjustConfidence above one = %v, want clamped to 1", got)
	}
}

func TestAdjustConfidenceNilPreferences(t *testing.T) {
	item := testItem(schedule.TriggerHoliday, "X", nil, 12)
	if got := AdjustConfidence(0.6, item, nil); got != 0.6 {
		t.Errorf("AdjustConfidence with nil prefs = %v, want base", got)
	}
}

// Pure function: identical inputs always yield identical output.
func TestAdjustConfidenceDeterministic(t *testing.T) {
	effect := 2
	prefs := &Preferences{
		TriggerSuccessRates: map[schedule.Trigger]float64{schedule.TriggerGameDay: 0.8},
		PatternSuccessRates: map[string]float64{"Game Night": 0.6},
		PreferredEffectIDs:  []int{effect},
		PreferredHours:      []int{19},
	}
	item := testItem(schedule.TriggerGameDay, "Game Night", &effect, 19)

	first := AdjustConfidence(0.55, item, prefs)
	for i := 0; i < 100; i++ {
		if got := AdjustConfidence(0.55, item, prefs); got != first {
			t.Fatalf("AdjustConfidence varied between calls: %v then %v", first, got)
		}
	}
}
