package component

// KineticComponent holds velocity in cells per tick
type KineticComponent struct {
	VelX float64
	VelY float64
}
