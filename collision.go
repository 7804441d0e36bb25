package main

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// WithinDistance reports whether two points are at most d apart
func WithinDistance(x1, y1, x2, y2, d float64) bool {
	return CheckCollision(x1, y1, d, x2, y2, 0)
}

// InPlanetContact reports whether a unit position touches a planet's contact ring
func InPlanetContact(pos Position, p *Planet, margin float64) bool {
	return WithinDistance(pos.X, pos.Y, p.Pos.X, p.Pos.Y, p.Radius+margin)
}
