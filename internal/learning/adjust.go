package learning

import "github.com/lumina-io/lumina-core/internal/schedule"

// AdjustConfidence re-blends an item's base confidence with the learned
// preferences. The function is pure: identical inputs always yield identical
// output.
//
// Blending order: base mixes 50/50 with the trigger success rate when one is
// known, the result then mixes 70/30 with the pattern success rate, and flat
// adjustments follow for avoided effects (-0.2), preferred effects (+0.1),
// and preferred hours (+0.05). The result is clamped to [0,1].
func AdjustConfidence(base float64, item schedule.Item, prefs *Preferences) float64 {
	if prefs == nil {
		return clamp01(base)
	}

	score := base
	if rate, ok := prefs.TriggerSuccessRates[item.Trigger]; ok {
		score = score*0.5 + rate*0.5
	}
	if rate, ok := prefs.PatternSuccessRates[item.PatternName]; ok {
		score = score*0.7 + rate*0.3
	}

	if item.EffectID != nil {
		if prefs.HasAvoidedEffect(*item.EffectID) {
			score -= 0.2
		} else if prefs.HasPreferredEffect(*item.EffectID) {
			score += 0.1
		}
	}
	if prefs.HasPreferredHour(item.ScheduledTime.Hour()) {
		score += 0.05
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
