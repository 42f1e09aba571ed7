package pattern

import (
	"context"
	"math"

	"github.com/lumina-io/lumina-core/internal/compliance"
	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/light"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// Base brightness before vibe scaling.
const (
	baseBrightnessEvent    = 200
	baseBrightnessBaseline = 180
)

// warmAmber is the generic glow used when an event carries no colors.
const warmAmber = "#FFBF40"

// fallbackConfidence applies whenever the rule-based path produces the
// configuration.
const fallbackConfidence = 0.5

// Candidate is one generated pattern proposal.
type Candidate struct {
	PatternName string
	Config      light.Config
	Confidence  float64
}

// Designer is the external generation collaborator. Implementations must
// honor context cancellation; a slow designer must not stall planning.
type Designer interface {
	Design(ctx context.Context, req DesignRequest) (DesignResult, error)
}

// DesignRequest carries the prompt and its structured inputs.
type DesignRequest struct {
	Prompt           string   `json:"prompt"`
	EventName        string   `json:"eventName,omitempty"`
	SuggestedColors  []string `json:"suggestedColors,omitempty"`
	TeamName         string   `json:"teamName,omitempty"`
	VibeLevel        float64  `json:"vibeLevel"`
	ColorsRestricted bool     `json:"colorsRestricted"`
}

// DesignResult is the designer's pattern proposal.
type DesignResult struct {
	Name   string       `json:"name"`
	Config light.Config `json:"config"`
}

// Logger is the minimal logging interface the generator needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Generator produces pattern candidates for events and the daily baseline.
type Generator struct {
	designer Designer
	logger   Logger
}

// NewGenerator creates a generator. A nil designer routes every request to
// the fallback path.
func NewGenerator(designer Designer, logger Logger) *Generator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Generator{designer: designer, logger: logger}
}

// ForEvent produces a candidate for a single calendar event. The compliance
// engine decides whether colors are permitted on the event's date; when they
// are not, both paths confine themselves to warm white.
func (g *Generator) ForEvent(ctx context.Context, p *profile.Profile, eng *compliance.Engine, ev events.CalendarEvent) Candidate {
	colorsAllowed := eng.AreColorsAllowed(ev.Date)

	if g.designer != nil {
		req := DesignRequest{
			Prompt:           buildPrompt(p, ev, colorsAllowed),
			EventName:        ev.Name,
			SuggestedColors:  ev.SuggestedColors,
			TeamName:         ev.TeamName,
			VibeLevel:        p.VibeLevel,
			ColorsRestricted: !colorsAllowed,
		}
		result, err := g.designer.Design(ctx, req)
		if err == nil {
			cfg := result.Config
			cfg.Brightness = scaleBrightness(cfg.Brightness, p.VibeLevel)
			name := result.Name
			if name == "" {
				name = ev.Name
			}
			return Candidate{
				PatternName: name,
				Config:      cfg,
				Confidence:  confidenceFor(p, ev),
			}
		}
		g.logger.Warn("designer unavailable, using fallback", "event", ev.Name, "error", err)
	}

	return g.fallback(p, ev, colorsAllowed)
}

// DailyBaseline produces the standing warm-white default that repeats every
// day of the week.
func (g *Generator) DailyBaseline(p *profile.Profile) Candidate {
	return Candidate{
		PatternName: "Evening Warm White",
		Config: light.Config{
			Power:      true,
			Brightness: scaleBrightness(baseBrightnessBaseline, p.VibeLevel),
			Segments: []light.Segment{
				{Colors: []string{light.WarmWhite}, EffectID: light.EffectSolid, Speed: 0, Intensity: 128},
			},
		},
		Confidence: fallbackConfidence,
	}
}

// fallback builds a deterministic configuration from the event alone.
func (g *Generator) fallback(p *profile.Profile, ev events.CalendarEvent, colorsAllowed bool) Candidate {
	seg := light.Segment{EffectID: light.EffectSolid, Speed: 0, Intensity: 128}

	switch {
	case !colorsAllowed:
		seg.Colors = []string{light.WarmWhite}
	case len(ev.SuggestedColors) > 0:
		n := len(ev.SuggestedColors)
		if n > 3 {
			n = 3
		}
		seg.Colors = append([]string(nil), ev.SuggestedColors[:n]...)
		if ev.SuggestedEffectID != nil {
			seg.EffectID = *ev.SuggestedEffectID
			seg.Speed = 96
		}
	default:
		seg.Colors = []string{warmAmber}
		seg.EffectID = light.EffectBreathe
		seg.Speed = 60
	}

	return Candidate{
		PatternName: ev.Name,
		Config: light.Config{
			Power:      true,
			Brightness: scaleBrightness(baseBrightnessEvent, p.VibeLevel),
			Segments:   []light.Segment{seg},
		},
		Confidence: fallbackConfidence,
	}
}

// confidenceFor scores a designer-produced candidate. Scores start at 0.5
// and accumulate boosts for favorited holidays, followed teams, and
// high-vibe game nights, clamped to [0,1].
func confidenceFor(p *profile.Profile, ev events.CalendarEvent) float64 {
	score := 0.5

	switch ev.Type {
	case events.TypeHoliday, events.TypeCustom:
		if matchesFavorite(ev.Name, p.FavoriteHolidays) {
			score += 0.25
		}
	case events.TypeSportGame:
		switch rank := p.TeamRank(ev.TeamName); {
		case rank == 0:
			score += 0.3
		case rank == 1:
			score += 0.2
		case rank >= 2:
			score += 0.15
		}
		if p.VibeLevel > 0.7 {
			score += 0.1
		}
	}

	return clamp01(score)
}

// scaleBrightness applies vibe-level scaling: subtle profiles land near 60%
// of base, bold profiles keep the full value. Result is clamped to [10,255].
func scaleBrightness(base int, vibeLevel float64) int {
	scaled := int(math.Round(float64(base) * (0.6 + vibeLevel*0.4)))
	if scaled < 10 {
		return 10
	}
	if scaled > 255 {
		return 255
	}
	return scaled
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
