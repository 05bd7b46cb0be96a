package physics

import "math"

// Lightweight value types for positions on the arena plane and in world space.
// Spatial indices work on the XY plane; Z is carried for callers that need it.

// Vec2 is a point or direction on the arena plane.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Vec3(z float64) Vec3  { return Vec3{v.X, v.Y, z} }
func (v Vec2) Equals(o Vec2, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

// Normalize returns the unit vector pointing along v, or the zero vector when
// v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Right returns the right-hand perpendicular of v (v × up, with up = +Z).
func (v Vec2) Right() Vec2 { return Vec2{v.Y, -v.X} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) XY() Vec2             { return Vec2{v.X, v.Y} }
func (v Vec3) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) LenSq() float64       { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(a, b Vec2) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// DistanceSq2 is the squared Euclidean distance between two 2D points.
func DistanceSq2(a, b Vec2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return dx*dx + dy*dy
}

// Distance3 computes Euclidean distance between two 3D points.
func Distance3(a, b Vec3) float64 { return b.Sub(a).Len() }

// Manhattan2 is the L1 distance between two 2D points.
func Manhattan2(a, b Vec2) float64 { return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y) }
