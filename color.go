package main

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Color is the border color as [r, g, b, a] with channels in 0..255 and
// alpha in 0..1.
type Color [4]float64

var defaultColor = Color{0, 0, 0, 0.5}

// ParseColor accepts "r,g,b[,a]", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}

	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color component %q: %w", part, err)
		}
		values = append(values, v)
	}
	return colorFromComponents(values)
}

func parseHexColor(s string) (Color, error) {
	alpha := 1.0
	switch len(s) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color alpha %q: %w", s[7:], err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	default:
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{float64(r), float64(g), float64(b), alpha}, nil
}

func colorFromComponents(values []float64) (Color, error) {
	switch len(values) {
	case 3:
		return Color{values[0], values[1], values[2], 1}, nil
	case 4:
		return Color{values[0], values[1], values[2], values[3]}, nil
	}
	return Color{}, fmt.Errorf("color needs 3 or 4 components, got %d", len(values))
}

func (c Color) validate() error {
	for i, v := range c[:3] {
		if v < 0 || v > 255 || math.IsNaN(v) {
			return fmt.Errorf("color channel %d out of range: %v", i, v)
		}
	}
	if c[3] < 0 || c[3] > 1 || math.IsNaN(c[3]) {
		return fmt.Errorf("color alpha out of range: %v", c[3])
	}
	return nil
}

// NRGBA converts the color for painting.
func (c Color) NRGBA() color.NRGBA {
	r, g, b := colorful.Color{R: c[0] / 255, G: c[1] / 255, B: c[2] / 255}.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(math.Max(0, math.Min(1, c[3])) * 255))}
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%g,%g,%g,%g)", c[0], c[1], c[2], c[3])
}

// UnmarshalYAML accepts either a sequence of components or a string form
// understood by ParseColor.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var values []float64
		if err := value.Decode(&values); err != nil {
			return fmt.Errorf("invalid color: %w", err)
		}
		parsed, err := colorFromComponents(values)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	parsed, err := ParseColor(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	return []float64{c[0], c[1], c[2], c[3]}, nil
}
