package canvas

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// BrushMode selects how a stroke is composited onto the bitmap.
type BrushMode string

const (
	// ModeDraw paints source-over.
	ModeDraw BrushMode = "draw"
	// ModeErase removes coverage (destination-out).
	ModeErase BrushMode = "erase"
)

// Brush width bounds in bitmap pixels.
const (
	MinWidth = 1
	MaxWidth = 50
)

// Palette is the fixed set of swatch colours offered by the toolbar.
var Palette = []string{
	"#000000",
	"#EF4444",
	"#22C55E",
	"#3B82F6",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
}

// Brush is the stroke style applied by Surface.Update.
type Brush struct {
	Color string    `json:"color"`
	Width float64   `json:"width"`
	Mode  BrushMode `json:"mode"`
}

// DefaultBrush returns a black 8 px drawing brush.
func DefaultBrush() Brush {
	return Brush{Color: Palette[0], Width: 8, Mode: ModeDraw}
}

// Validate reports whether the brush can be used for stroking.
func (b Brush) Validate() error {
	if _, err := colorful.Hex(b.Color); err != nil {
		return fmt.Errorf("invalid color %q: %w", b.Color, err)
	}
	if b.Width < MinWidth || b.Width > MaxWidth {
		return fmt.Errorf("width %v out of range [%d, %d]", b.Width, MinWidth, MaxWidth)
	}
	if b.Mode != ModeDraw && b.Mode != ModeErase {
		return fmt.Errorf("unknown brush mode %q", b.Mode)
	}
	return nil
}

// WithColor returns a copy of b painting in hex. Picking a colour always
// switches back to drawing.
func (b Brush) WithColor(hex string) Brush {
	b.Color = hex
	b.Mode = ModeDraw
	return b
}

// WithWidth returns a copy of b with the width clamped to the valid range.
func (b Brush) WithWidth(w float64) Brush {
	b.Width = math.Max(MinWidth, math.Min(w, MaxWidth))
	return b
}

// SameColor reports whether b paints the given hex colour.
func (b Brush) SameColor(hex string) bool {
	return strings.EqualFold(b.Color, hex)
}

// RGBA returns the brush colour, falling back to black when it does not
// parse.
func (b Brush) RGBA() color.Color {
	c, err := colorful.Hex(b.Color)
	if err != nil {
		return color.Black
	}
	return c
}

// SliderWidth maps a slider position p in [0, 1] to a brush width.
func SliderWidth(p float64) float64 {
	p = math.Max(0, math.Min(p, 1))
	return MinWidth + math.Round(p*(MaxWidth-MinWidth))
}
