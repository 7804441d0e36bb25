package main

const quadMaxDepth = 16

// Rect is an axis-aligned box. Min is inclusive, Max exclusive.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// RectAround returns the box of half-size r centered on p
func RectAround(p Position, r float64) Rect {
	return Rect{MinX: p.X - r, MinY: p.Y - r, MaxX: p.X + r, MaxY: p.Y + r}
}

// Contains reports whether p lies inside the box
func (r Rect) Contains(p Position) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}

// Intersects reports whether two boxes overlap
func (r Rect) Intersects(o Rect) bool {
	return !(o.MinX > r.MaxX || o.MaxX < r.MinX || o.MinY > r.MaxY || o.MaxY < r.MinY)
}

// Quadtree is a broad-phase index over unit positions, rebuilt every tick
type Quadtree struct {
	bounds   Rect
	capacity int
	depth    int
	units    []*Unit
	children *[4]Quadtree
}

// NewQuadtree creates an empty tree covering bounds
func NewQuadtree(bounds Rect, capacity int) *Quadtree {
	if capacity <= 0 {
		capacity = 1
	}
	return &Quadtree{bounds: bounds, capacity: capacity}
}

// BuildQuadtree indexes units inside their bounding box padded by margin
func BuildQuadtree(units []*Unit, capacity int, margin float64) *Quadtree {
	if len(units) == 0 {
		return NewQuadtree(Rect{}, capacity)
	}
	b := Rect{MinX: units[0].Pos.X, MinY: units[0].Pos.Y, MaxX: units[0].Pos.X, MaxY: units[0].Pos.Y}
	for _, u := range units[1:] {
		if u.Pos.X < b.MinX {
			b.MinX = u.Pos.X
		}
		if u.Pos.X > b.MaxX {
			b.MaxX = u.Pos.X
		}
		if u.Pos.Y < b.MinY {
			b.MinY = u.Pos.Y
		}
		if u.Pos.Y > b.MaxY {
			b.MaxY = u.Pos.Y
		}
	}
	b.MinX -= margin
	b.MinY -= margin
	b.MaxX += margin
	b.MaxY += margin

	qt := NewQuadtree(b, capacity)
	for _, u := range units {
		qt.Insert(u)
	}
	return qt
}

// Bounds returns the area covered by the tree
func (q *Quadtree) Bounds() Rect {
	return q.bounds
}

// Insert adds a unit. Returns false if it lies outside the tree.
func (q *Quadtree) Insert(u *Unit) bool {
	if !q.bounds.Contains(u.Pos) {
		return false
	}
	if len(q.units) < q.capacity || q.depth >= quadMaxDepth {
		q.units = append(q.units, u)
		return true
	}
	if q.children == nil {
		q.subdivide()
	}
	for i := range q.children {
		if q.children[i].Insert(u) {
			return true
		}
	}
	// Unreachable for points inside bounds; keep the unit rather than drop it.
	q.units = append(q.units, u)
	return true
}

func (q *Quadtree) subdivide() {
	b := q.bounds
	midX := (b.MinX + b.MaxX) / 2
	midY := (b.MinY + b.MaxY) / 2
	d := q.depth + 1
	q.children = &[4]Quadtree{
		{bounds: Rect{MinX: midX, MinY: b.MinY, MaxX: b.MaxX, MaxY: midY}, capacity: q.capacity, depth: d}, // NE
		{bounds: Rect{MinX: b.MinX, MinY: b.MinY, MaxX: midX, MaxY: midY}, capacity: q.capacity, depth: d}, // NW
		{bounds: Rect{MinX: midX, MinY: midY, MaxX: b.MaxX, MaxY: b.MaxY}, capacity: q.capacity, depth: d}, // SE
		{bounds: Rect{MinX: b.MinX, MinY: midY, MaxX: midX, MaxY: b.MaxY}, capacity: q.capacity, depth: d}, // SW
	}
}

// Query appends all units inside rng to buf and returns the extended slice
func (q *Quadtree) Query(rng Rect, buf []*Unit) []*Unit {
	if !q.bounds.Intersects(rng) {
		return buf
	}
	for _, u := range q.units {
		if rng.Contains(u.Pos) {
			buf = append(buf, u)
		}
	}
	if q.children != nil {
		for i := range q.children {
			buf = q.children[i].Query(rng, buf)
		}
	}
	return buf
}

// Len returns the number of indexed units
func (q *Quadtree) Len() int {
	n := len(q.units)
	if q.children != nil {
		for i := range q.children {
			n += q.children[i].Len()
		}
	}
	return n
}
