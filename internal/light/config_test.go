package light

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [3]int
		wantErr bool
	}{
		{name: "orange", input: "#FB4F14", want: [3]int{251, 79, 20}},
		{name: "lowercase", input: "#ffddaa", want: [3]int{255, 221, 170}},
		{name: "black", input: "#000000", want: [3]int{0, 0, 0}},
		{name: "missing hash", input: "FB4F14", wantErr: true},
		{name: "too short", input: "#FFF", wantErr: true},
		{name: "not hex", input: "#GGHHII", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("ParseHexColor(%q) error = %v, want ErrInvalidColor", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHexColor(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarshalWLED(t *testing.T) {
	cfg := Config{
		Power:      true,
		Brightness: 200,
		Segments: []Segment{
			{Colors: []string{"#FF0000", "#00FF00"}, EffectID: EffectBreathe, Speed: 100, Intensity: 128},
		},
	}

	data, err := cfg.MarshalWLED()
	if err != nil {
		t.Fatalf("MarshalWLED() error = %v", err)
	}

	var state struct {
		On         bool `json:"on"`
		Brightness int  `json:"bri"`
		Segments   []struct {
			Colors    [][3]int `json:"col"`
			Effect    int      `json:"fx"`
			Speed     int      `json:"sx"`
			Intensity int      `json:"ix"`
		} `json:"seg"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}

	if !state.On {
		t.Error("on = false, want true")
	}
	if state.Brightness != 200 {
		t.Errorf("bri = %d, want 200", state.Brightness)
	}
	if len(state.Segments) != 1 {
		t.Fatalf("seg count = %d, want 1", len(state.Segments))
	}
	seg := state.Segments[0]
	if seg.Effect != EffectBreathe {
		t.Errorf("fx = %d, want %d", seg.Effect, EffectBreathe)
	}
	if seg.Colors[0] != [3]int{255, 0, 0} || seg.Colors[1] != [3]int{0, 255, 0} {
		t.Errorf("col = %v, want red and green triplets", seg.Colors)
	}
}

func TestMarshalWLEDInvalidColor(t *testing.T) {
	cfg := Config{Segments: []Segment{{Colors: []string{"red"}}}}
	if _, err := cfg.MarshalWLED(); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("MarshalWLED() error = %v, want ErrInvalidColor", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Config{
		Power:      true,
		Brightness: 128,
		Segments:   []Segment{{Colors: []string{"#FF0000"}, EffectID: EffectSolid}},
	}

	clone := orig.Clone()
	clone.Segments[0].Colors[0] = "#0000FF"
	clone.Segments[0].EffectID = EffectStrobe

	if orig.Segments[0].Colors[0] != "#FF0000" {
		t.Errorf("original colors mutated: %v", orig.Segments[0].Colors)
	}
	if orig.Segments[0].EffectID != EffectSolid {
		t.Errorf("original effect mutated: %d", orig.Segments[0].EffectID)
	}
}

func TestEqual(t *testing.T) {
	base := Config{
		Power:      true,
		Brightness: 128,
		Segments:   []Segment{{Colors: []string{"#FF0000"}, EffectID: EffectSolid, Speed: 60, Intensity: 120}},
	}

	if !base.Equal(base.Clone()) {
		t.Error("config not equal to its clone")
	}

	caseInsensitive := base.Clone()
	caseInsensitive.Segments[0].Colors[0] = "#ff0000"
	if !base.Equal(caseInsensitive) {
		t.Error("color comparison should ignore case")
	}

	dimmed := base.Clone()
	dimmed.Brightness = 60
	if base.Equal(dimmed) {
		t.Error("configs with different brightness reported equal")
	}
}
