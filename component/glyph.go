package component

// GlyphComponent is the visible character of an entity
type GlyphComponent struct {
	Rune rune
	Type GlyphType
}

// GlyphType selects the render palette entry
type GlyphType int

const (
	GlyphGreen GlyphType = iota
	GlyphBlue
	GlyphRed
	GlyphGold
)

// GlyphTypeCount is the number of glyph types
const GlyphTypeCount = 4
