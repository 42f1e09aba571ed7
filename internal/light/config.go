package light

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// WLED effect identifiers used by the planner. The IDs match the firmware's
// built-in effect table.
const (
	EffectSolid     = 0
	EffectBreathe   = 2
	EffectRainbow   = 9
	EffectFade      = 12
	EffectStrobe    = 23
	EffectChase     = 28
	EffectFireworks = 42
	EffectLightning = 57
	EffectTwinkle   = 74
	EffectCandle    = 88
)

// WarmWhite is the substitute color applied when a configuration's colors
// are not permitted.
const WarmWhite = "#FFDDAA"

// ErrInvalidColor indicates a color string that is not a #RRGGBB hex value.
var ErrInvalidColor = errors.New("light: invalid color")

// Segment describes one segment of a lighting configuration.
type Segment struct {
	Colors    []string `json:"colors"`
	EffectID  int      `json:"effectId"`
	Speed     int      `json:"speed"`
	Intensity int      `json:"intensity"`
}

// Config is the desired state of a lighting controller. Extra carries
// controller-specific keys that the planner passes through untouched.
type Config struct {
	Power      bool           `json:"power"`
	Brightness int            `json:"brightness"`
	Segments   []Segment      `json:"segments"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Clone returns a deep copy of the configuration. Extension map values are
// opaque and copied by reference.
func (c Config) Clone() Config {
	out := c
	out.Segments = make([]Segment, len(c.Segments))
	for i, seg := range c.Segments {
		out.Segments[i] = seg
		out.Segments[i].Colors = append([]string(nil), seg.Colors...)
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Equal reports whether two configurations describe the same typed state.
// Extension map contents are not compared.
func (c Config) Equal(other Config) bool {
	if c.Power != other.Power || c.Brightness != other.Brightness {
		return false
	}
	if len(c.Segments) != len(other.Segments) {
		return false
	}
	for i, seg := range c.Segments {
		o := other.Segments[i]
		if seg.EffectID != o.EffectID || seg.Speed != o.Speed || seg.Intensity != o.Intensity {
			return false
		}
		if len(seg.Colors) != len(o.Colors) {
			return false
		}
		for j, col := range seg.Colors {
			if !strings.EqualFold(col, o.Colors[j]) {
				return false
			}
		}
	}
	return true
}

// wledSegment mirrors the firmware's segment state object.
type wledSegment struct {
	Colors    [][3]int `json:"col"`
	Effect    int      `json:"fx"`
	Speed     int      `json:"sx"`
	Intensity int      `json:"ix"`
}

// wledState mirrors the firmware's top-level state object.
type wledState struct {
	On         bool          `json:"on"`
	Brightness int           `json:"bri"`
	Segments   []wledSegment `json:"seg"`
}

// MarshalWLED encodes the configuration as a WLED JSON state payload,
// converting hex color strings to RGB triplets.
func (c Config) MarshalWLED() ([]byte, error) {
	state := wledState{
		On:         c.Power,
		Brightness: c.Brightness,
		Segments:   make([]wledSegment, len(c.Segments)),
	}
	for i, seg := range c.Segments {
		ws := wledSegment{
			Effect:    seg.EffectID,
			Speed:     seg.Speed,
			Intensity: seg.Intensity,
			Colors:    make([][3]int, len(seg.Colors)),
		}
		for j, col := range seg.Colors {
			rgb, err := ParseHexColor(col)
			if err != nil {
				return nil, err
			}
			ws.Colors[j] = rgb
		}
		state.Segments[i] = ws
	}
	return json.Marshal(state)
}

// ParseHexColor converts a #RRGGBB string to an RGB triplet.
func ParseHexColor(s string) ([3]int, error) {
	var rgb [3]int
	if len(s) != 7 || s[0] != '#' {
		return rgb, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(strings.ToUpper(s[1:]), "%02X%02X%02X", &r, &g, &b); err != nil {
		return rgb, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	rgb[0], rgb[1], rgb[2] = r, g, b
	return rgb, nil
}
