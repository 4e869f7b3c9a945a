package component

// ArenaResource is the world-wide simulation area, installed as a resource
type ArenaResource struct {
	Width  float64
	Height float64
}

// Contains reports whether (x, y) lies inside the arena
func (a *ArenaResource) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < a.Width && y < a.Height
}
