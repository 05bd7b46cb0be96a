package physics

import "math"

// Bounds is an axis-aligned rectangle described by its center and half extent.
// Edges are inclusive.
type Bounds struct {
	Center Vec2
	Half   Vec2
}

// NewBounds builds bounds from a center and half extent.
func NewBounds(center, half Vec2) Bounds { return Bounds{Center: center, Half: half} }

// Square builds bounds with equal half extents on both axes.
func Square(center Vec2, half float64) Bounds {
	return Bounds{Center: center, Half: Vec2{half, half}}
}

func (b Bounds) MinX() float64 { return b.Center.X - b.Half.X }
func (b Bounds) MaxX() float64 { return b.Center.X + b.Half.X }
func (b Bounds) MinY() float64 { return b.Center.Y - b.Half.Y }
func (b Bounds) MaxY() float64 { return b.Center.Y + b.Half.Y }

// Rect returns the edges of b.
func (b Bounds) Rect() Rect {
	return Rect{Min: Vec2{b.MinX(), b.MinY()}, Max: Vec2{b.MaxX(), b.MaxY()}}
}

// Valid reports whether both half extents are strictly positive and finite.
func (b Bounds) Valid() bool {
	return b.Half.X > 0 && b.Half.Y > 0 &&
		!math.IsInf(b.Half.X, 0) && !math.IsInf(b.Half.Y, 0) &&
		!math.IsNaN(b.Center.X) && !math.IsNaN(b.Center.Y)
}

// Contains reports whether p lies inside b or on its edge.
func (b Bounds) Contains(p Vec2) bool { return b.Rect().Contains(p) }

// Intersects reports whether b and o overlap. Touching edges count.
func (b Bounds) Intersects(o Bounds) bool { return b.Rect().Intersects(o.Rect()) }

// DistanceSqTo is the squared distance from p to the closest point of b.
// It is zero when p is inside b.
func (b Bounds) DistanceSqTo(p Vec2) float64 { return b.Rect().DistanceSqTo(p) }

// Rect is an axis-aligned rectangle stored by its edges. Splitting a Rect
// reuses the parent's edge values, so the quarters cover it exactly.
type Rect struct {
	Min Vec2
	Max Vec2
}

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return !(o.Min.X > r.Max.X ||
		o.Max.X < r.Min.X ||
		o.Min.Y > r.Max.Y ||
		o.Max.Y < r.Min.Y)
}

// DistanceSqTo is the squared distance from p to the closest point of r.
func (r Rect) DistanceSqTo(p Vec2) float64 {
	dx := math.Max(0, math.Max(r.Min.X-p.X, p.X-r.Max.X))
	dy := math.Max(0, math.Max(r.Min.Y-p.Y, p.Y-r.Max.Y))
	return dx*dx + dy*dy
}

// Mid is the split point of r.
func (r Rect) Mid() Vec2 {
	return Vec2{r.Min.X + (r.Max.X-r.Min.X)/2, r.Min.Y + (r.Max.Y-r.Min.Y)/2}
}

// Quadrants splits r into its NW, NE, SW, SE quarters (north is +Y). Adjacent
// quarters share the exact split coordinate and outer quarters keep r's edges.
func (r Rect) Quadrants() [4]Rect {
	m := r.Mid()
	return [4]Rect{
		{Min: Vec2{r.Min.X, m.Y}, Max: Vec2{m.X, r.Max.Y}},
		{Min: m, Max: r.Max},
		{Min: r.Min, Max: m},
		{Min: Vec2{m.X, r.Min.Y}, Max: Vec2{r.Max.X, m.Y}},
	}
}

// Bounds converts r back to center and half extent form.
func (r Rect) Bounds() Bounds {
	return Bounds{
		Center: r.Mid(),
		Half:   Vec2{(r.Max.X - r.Min.X) / 2, (r.Max.Y - r.Min.Y) / 2},
	}
}
