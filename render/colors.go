package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/tickworld/component"
)

// RGB color definitions
var (
	RgbGlyphGreen = tcell.NewRGBColor(0, 200, 0)     // Normal Green
	RgbGlyphBlue  = tcell.NewRGBColor(100, 150, 255) // Normal Blue
	RgbGlyphRed   = tcell.NewRGBColor(255, 80, 80)   // Normal Red
	RgbGlyphGold  = tcell.NewRGBColor(255, 255, 0)   // Bright Yellow

	RgbBackground = tcell.NewRGBColor(26, 27, 38)    // Tokyo Night background
	RgbStatusBar  = tcell.NewRGBColor(135, 206, 250) // Light sky blue
	RgbStatusText = tcell.NewRGBColor(0, 0, 0)       // Dark text for status
	RgbPausedBg   = tcell.NewRGBColor(255, 165, 0)   // Orange
)

// GlyphColor returns the foreground color of a glyph type
func GlyphColor(t component.GlyphType) tcell.Color {
	switch t {
	case component.GlyphBlue:
		return RgbGlyphBlue
	case component.GlyphRed:
		return RgbGlyphRed
	case component.GlyphGold:
		return RgbGlyphGold
	default:
		return RgbGlyphGreen
	}
}
