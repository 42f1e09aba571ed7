package pattern

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lumina-io/lumina-core/internal/compliance"
	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/light"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// stubDesigner returns a canned result, or an error.
type stubDesigner struct {
	result  DesignResult
	err     error
	lastReq DesignRequest
}

func (d *stubDesigner) Design(_ context.Context, req DesignRequest) (DesignResult, error) {
	d.lastReq = req
	if d.err != nil {
		return DesignResult{}, d.err
	}
	return d.result, nil
}

func openEngine(t *testing.T) *compliance.Engine {
	t.Helper()
	e, err := compliance.New(profile.ComplianceSettings{})
	if err != nil {
		t.Fatalf("compliance.New() error = %v", err)
	}
	return e
}

func restrictedEngine(t *testing.T) *compliance.Engine {
	t.Helper()
	e, err := compliance.New(profile.ComplianceSettings{
		Enabled: true,
		SeasonalColorWindows: []profile.SeasonalWindow{
			{StartMonth: 11, StartDay: 20, EndMonth: 1, EndDay: 5},
		},
	})
	if err != nil {
		t.Fatalf("compliance.New() error = %v", err)
	}
	return e
}

func holidayEvent() events.CalendarEvent {
	effect := light.EffectTwinkle
	return events.CalendarEvent{
		Name:              "Christmas",
		Date:              time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		Type:              events.TypeHoliday,
		SuggestedColors:   []string{"#C8102E", "#00843D"},
		SuggestedEffectID: &effect,
		Priority:          events.PriorityFavoriteHoliday,
	}
}

// Vibe 0.0 scales a base brightness of 200 down to round(200*0.6) = 120.
func TestVibeBrightnessScaling(t *testing.T) {
	tests := []struct {
		name string
		base int
		vibe float64
		want int
	}{
		{name: "subtle floor", base: 200, vibe: 0.0, want: 120},
		{name: "full vibe", base: 200, vibe: 1.0, want: 200},
		{name: "midpoint", base: 200, vibe: 0.5, want: 160},
		{name: "clamps low", base: 10, vibe: 0.0, want: 10},
		{name: "clamps high", base: 255, vibe: 1.0, want: 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaleBrightness(tt.base, tt.vibe); got != tt.want {
				t.Errorf("scaleBrightness(%d, %v) = %d, want %d", tt.base, tt.vibe, got, tt.want)
			}
		})
	}
}

func TestFallbackUsesSuggestedColors(t *testing.T) {
	g := NewGenerator(nil, nil)
	p := &profile.Profile{VibeLevel: 1.0}

	got := g.ForEvent(context.Background(), p, openEngine(t), holidayEvent())

	if got.Confidence != 0.5 {
		t.Errorf("fallback confidence = %v, want 0.5", got.Confidence)
	}
	if got.PatternName != "Christmas" {
		t.Errorf("PatternName = %q, want Christmas", got.PatternName)
	}
	seg := got.Config.Segments[0]
	if len(seg.Colors) != 2 || seg.Colors[0] != "#C8102E" {
		t.Errorf("Colors = %v, want suggested colors", seg.Colors)
	}
	if seg.EffectID != light.EffectTwinkle {
		t.Errorf("EffectID = %d, want twinkle", seg.EffectID)
	}
	if got.Config.Brightness != 200 {
		t.Errorf("Brightness = %d, want 200 at full vibe", got.Config.Brightness)
	}
}

func TestFallbackCapsColorsAtThree(t *testing.T) {
	g := NewGenerator(nil, nil)
	p := &profile.Profile{VibeLevel: 0.5}
	ev := holidayEvent()
	ev.SuggestedColors = []string{"#111111", "#222222", "#333333", "#444444"}

	got := g.ForEvent(context.Background(), p, openEngine(t), ev)
	if n := len(got.Config.Segments[0].Colors); n != 3 {
		t.Errorf("color count = %d, want 3", n)
	}
}

func TestFallbackWarmWhiteWhenColorsRestricted(t *testing.T) {
	g := NewGenerator(nil, nil)
	p := &profile.Profile{VibeLevel: 0.5}

	// Mid-March is outside the November-January window.
	ev := holidayEvent()
	ev.Date = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	got := g.ForEvent(context.Background(), p, restrictedEngine(t), ev)
	seg := got.Config.Segments[0]
	if len(seg.Colors) != 1 || seg.Colors[0] != light.WarmWhite {
		t.Errorf("Colors = %v, want warm white only", seg.Colors)
	}
	if seg.EffectID != light.EffectSolid {
		t.Errorf("EffectID = %d, want solid", seg.EffectID)
	}
}

func TestFallbackGenericGlowWithoutColors(t *testing.T) {
	g := NewGenerator(nil, nil)
	p := &profile.Profile{VibeLevel: 0.5}
	ev := events.CalendarEvent{
		Name: "Movie Night",
		Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Type: events.TypeCustom,
	}

	got := g.ForEvent(context.Background(), p, openEngine(t), ev)
	seg := got.Config.Segments[0]
	if len(seg.Colors) != 1 || seg.Colors[0] != warmAmber {
		t.Errorf("Colors = %v, want warm amber glow", seg.Colors)
	}
	if seg.EffectID != light.EffectBreathe {
		t.Errorf("EffectID = %d, want breathe", seg.EffectID)
	}
}

func TestDesignerFailureFallsBack(t *testing.T) {
	designer := &stubDesigner{err: errors.New("timeout")}
	g := NewGenerator(designer, nil)
	p := &profile.Profile{VibeLevel: 0.5}

	got := g.ForEvent(context.Background(), p, openEngine(t), holidayEvent())
	if got.Confidence != 0.5 {
		t.Errorf("fallback confidence = %v, want 0.5", got.Confidence)
	}
	if len(got.Config.Segments) == 0 {
		t.Fatal("fallback produced empty configuration")
	}
}

func TestDesignerPathConfidenceBoosts(t *testing.T) {
	designer := &stubDesigner{result: DesignResult{
		Name: "Designed",
		Config: light.Config{
			Power:      true,
			Brightness: 200,
			Segments:   []light.Segment{{Colors: []string{"#FB4F14"}, EffectID: light.EffectChase}},
		},
	}}
	g := NewGenerator(designer, nil)

	tests := []struct {
		name string
		p    *profile.Profile
		ev   events.CalendarEvent
		want float64
	}{
		{
			name: "favorited holiday",
			p:    &profile.Profile{FavoriteHolidays: []string{"christmas"}, VibeLevel: 0.5},
			ev:   holidayEvent(),
			want: 0.75,
		},
		{
			name: "non-favorited holiday",
			p:    &profile.Profile{VibeLevel: 0.5},
			ev:   holidayEvent(),
			want: 0.5,
		},
		{
			name: "top team game",
			p:    &profile.Profile{FollowedTeams: []string{"broncos", "nuggets"}, VibeLevel: 0.5},
			ev:   events.CalendarEvent{Name: "broncos vs Chiefs", Type: events.TypeSportGame, TeamName: "broncos", Date: time.Date(2025, 9, 8, 18, 0, 0, 0, time.UTC)},
			want: 0.8,
		},
		{
			name: "second team game",
			p:    &profile.Profile{FollowedTeams: []string{"broncos", "nuggets"}, VibeLevel: 0.5},
			ev:   events.CalendarEvent{Name: "nuggets vs Lakers", Type: events.TypeSportGame, TeamName: "nuggets", Date: time.Date(2025, 9, 10, 19, 0, 0, 0, time.UTC)},
			want: 0.7,
		},
		{
			name: "high vibe game bonus",
			p:    &profile.Profile{FollowedTeams: []string{"broncos"}, VibeLevel: 0.8},
			ev:   events.CalendarEvent{Name: "broncos vs Chiefs", Type: events.TypeSportGame, TeamName: "broncos", Date: time.Date(2025, 9, 8, 18, 0, 0, 0, time.UTC)},
			want: 0.9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.ForEvent(context.Background(), tt.p, openEngine(t), tt.ev)
			if diff := got.Confidence - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.want)
			}
			if got.PatternName != "Designed" {
				t.Errorf("PatternName = %q, want designer name", got.PatternName)
			}
		})
	}
}

func TestPromptMentionsRestrictionsAndTaste(t *testing.T) {
	designer := &stubDesigner{result: DesignResult{
		Name:   "Designed",
		Config: light.Config{Segments: []light.Segment{{Colors: []string{"#FFFFFF"}}}},
	}}
	g := NewGenerator(designer, nil)
	p := &profile.Profile{
		VibeLevel:       0.2,
		PreferredStyles: []string{"warm", "subtle"},
		DislikedStyles:  []string{"strobe"},
	}

	ev := holidayEvent()
	ev.Date = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	g.ForEvent(context.Background(), p, restrictedEngine(t), ev)

	prompt := designer.lastReq.Prompt
	if !strings.Contains(prompt, "restricted to white") {
		t.Errorf("prompt missing color restriction: %q", prompt)
	}
	if !strings.Contains(prompt, "warm, subtle") {
		t.Errorf("prompt missing preferred styles: %q", prompt)
	}
	if !strings.Contains(prompt, "Avoid: strobe") {
		t.Errorf("prompt missing dislikes: %q", prompt)
	}
	if !designer.lastReq.ColorsRestricted {
		t.Error("ColorsRestricted flag not set")
	}
}

func TestDailyBaseline(t *testing.T) {
	g := NewGenerator(nil, nil)
	p := &profile.Profile{VibeLevel: 0.5}

	got := g.DailyBaseline(p)
	if got.PatternName != "Evening Warm White" {
		t.Errorf("PatternName = %q", got.PatternName)
	}
	seg := got.Config.Segments[0]
	if seg.Colors[0] != light.WarmWhite || seg.EffectID != light.EffectSolid {
		t.Errorf("baseline segment = %+v, want warm white solid", seg)
	}
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", got.Confidence)
	}
}

func TestHTTPDesigner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Remote","config":{"power":true,"brightness":180,"segments":[{"colors":["#FF0000"],"effectId":2,"speed":100,"intensity":128}]}}`))
	}))
	defer server.Close()

	d := NewHTTPDesigner(server.URL, 5*time.Second)
	got, err := d.Design(context.Background(), DesignRequest{Prompt: "test"})
	if err != nil {
		t.Fatalf("Design() error = %v", err)
	}
	if got.Name != "Remote" {
		t.Errorf("Name = %q, want Remote", got.Name)
	}
	if got.Config.Brightness != 180 || got.Config.Segments[0].EffectID != 2 {
		t.Errorf("Config = %+v", got.Config)
	}
}

func TestHTTPDesignerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewHTTPDesigner(server.URL, 5*time.Second)
	if _, err := d.Design(context.Background(), DesignRequest{}); !errors.Is(err, ErrDesignerStatus) {
		t.Errorf("Design() error = %v, want ErrDesignerStatus", err)
	}
}

func TestHTTPDesignerEmptyConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Empty","config":{"power":true,"brightness":100,"segments":[]}}`))
	}))
	defer server.Close()

	d := NewHTTPDesigner(server.URL, 5*time.Second)
	if _, err := d.Design(context.Background(), DesignRequest{}); err == nil {
		t.Error("Design() error = nil, want empty-configuration error")
	}
}
