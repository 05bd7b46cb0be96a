package spatial

import (
	"errors"
	"math"

	"github.com/zeusync/director/internal/core/systems/physics"
)

const (
	DefaultCapacity = 4
	DefaultMaxDepth = 8
)

var ErrInvalidBounds = errors.New("spatial: bounds must have positive finite half extents")

// Point is a position on the arena plane carrying caller data.
type Point[T any] struct {
	Pos  physics.Vec2
	Data T
}

// Statistics describes the current shape of the tree.
type Statistics struct {
	Nodes        int
	Leaves       int
	Points       int
	MaxDepth     int
	AverageDepth float64
}

type Option func(*config)

type config struct {
	capacity int
	maxDepth int
}

// WithCapacity sets how many points a leaf holds before it subdivides.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithMaxDepth sets the depth at which leaves stop subdividing and accept
// points past capacity. The root is depth 0.
func WithMaxDepth(d int) Option {
	return func(c *config) {
		if d >= 0 {
			c.maxDepth = d
		}
	}
}

// Quadtree is a point quadtree over a fixed rectangular region. A node is
// either a leaf holding points or an inner node with exactly four children
// that quarter its region. Inner nodes never merge back; Clear resets the
// whole tree.
//
// Quadtree is not safe for concurrent use.
type Quadtree[T any] struct {
	bounds physics.Bounds
	root   *node[T]
	cfg    config
	size   int
}

// node regions are kept as edges so that children tile their parent with no
// rounding gaps. Inner nodes normally hold no points of their own.
type node[T any] struct {
	rect     physics.Rect
	depth    int
	points   []Point[T]
	children *[4]*node[T]
}

// New creates an empty tree covering bounds.
func New[T any](bounds physics.Bounds, opts ...Option) (*Quadtree[T], error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}
	cfg := config{capacity: DefaultCapacity, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Quadtree[T]{
		bounds: bounds,
		root:   newNode[T](bounds.Rect(), 0, cfg.capacity),
		cfg:    cfg,
	}, nil
}

func newNode[T any](r physics.Rect, depth, capacity int) *node[T] {
	return &node[T]{rect: r, depth: depth, points: make([]Point[T], 0, capacity)}
}

// Insert adds p. Returns false when p lies outside the tree's bounds.
func (q *Quadtree[T]) Insert(p Point[T]) bool {
	if !q.insert(q.root, p) {
		return false
	}
	q.size++
	return true
}

func (q *Quadtree[T]) insert(n *node[T], p Point[T]) bool {
	if !n.rect.Contains(p.Pos) {
		return false
	}

	if n.children == nil {
		if len(n.points) < q.cfg.capacity || n.depth >= q.cfg.maxDepth {
			n.points = append(n.points, p)
			return true
		}
		q.subdivide(n)
	}

	// first match wins for points on a shared edge
	if !q.push(n, p) {
		n.points = append(n.points, p)
	}
	return true
}

// push hands p to the first child that accepts it.
func (q *Quadtree[T]) push(n *node[T], p Point[T]) bool {
	for _, c := range n.children {
		if q.insert(c, p) {
			return true
		}
	}
	return false
}

// subdivide splits a full leaf and pushes its points down.
func (q *Quadtree[T]) subdivide(n *node[T]) {
	n.children = &[4]*node[T]{}
	for i, r := range n.rect.Quadrants() {
		n.children[i] = newNode[T](r, n.depth+1, q.cfg.capacity)
	}

	points := n.points
	n.points = nil
	for _, p := range points {
		if !q.push(n, p) {
			n.points = append(n.points, p)
		}
	}
}

// Query returns every point inside r. Edges are inclusive.
func (q *Quadtree[T]) Query(r physics.Bounds) []Point[T] {
	var out []Point[T]
	q.query(q.root, r.Rect(), &out)
	return out
}

func (q *Quadtree[T]) query(n *node[T], r physics.Rect, out *[]Point[T]) {
	if !n.rect.Intersects(r) {
		return
	}
	for _, p := range n.points {
		if r.Contains(p.Pos) {
			*out = append(*out, p)
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			q.query(c, r, out)
		}
	}
}

// QueryRadius returns every point within radius of center.
func (q *Quadtree[T]) QueryRadius(center physics.Vec2, radius float64) []Point[T] {
	if radius < 0 {
		return nil
	}
	candidates := q.Query(physics.Square(center, radius))
	r2 := radius * radius
	out := candidates[:0]
	for _, p := range candidates {
		if physics.DistanceSq2(center, p.Pos) <= r2 {
			out = append(out, p)
		}
	}
	return out
}

// Nearest returns the point closest to pos. A negative maxDistance means no
// limit. The second result is false when no point lies within range.
func (q *Quadtree[T]) Nearest(pos physics.Vec2, maxDistance float64) (Point[T], bool) {
	best := math.Inf(1)
	if maxDistance >= 0 {
		best = maxDistance * maxDistance
	}
	var (
		found Point[T]
		ok    bool
	)
	q.nearest(q.root, pos, &best, &found, &ok)
	return found, ok
}

func (q *Quadtree[T]) nearest(n *node[T], pos physics.Vec2, best *float64, found *Point[T], ok *bool) {
	if n.rect.DistanceSqTo(pos) > *best {
		return
	}
	for _, p := range n.points {
		if d := physics.DistanceSq2(pos, p.Pos); d <= *best && (!*ok || d < *best) {
			*best, *found, *ok = d, p, true
		}
	}
	if n.children == nil {
		return
	}

	// visit the closest quadrant first so the bound tightens early
	order := [4]int{0, 1, 2, 3}
	var dist [4]float64
	for i, c := range n.children {
		dist[i] = c.rect.DistanceSqTo(pos)
	}
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && dist[order[j]] < dist[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for _, i := range order {
		q.nearest(n.children[i], pos, best, found, ok)
	}
}

// Clear drops every point and child, leaving an empty root leaf.
func (q *Quadtree[T]) Clear() {
	q.root = newNode[T](q.bounds.Rect(), 0, q.cfg.capacity)
	q.size = 0
}

// Len returns the number of successfully inserted points.
func (q *Quadtree[T]) Len() int { return q.size }

// IsSubdivided reports whether the root has split.
func (q *Quadtree[T]) IsSubdivided() bool { return q.root.children != nil }

func (q *Quadtree[T]) Bounds() physics.Bounds { return q.bounds }

// Capacity is the per-leaf point limit below the depth ceiling.
func (q *Quadtree[T]) Capacity() int { return q.cfg.capacity }

func (q *Quadtree[T]) MaxDepth() int { return q.cfg.maxDepth }

// Stats walks the tree. AverageDepth is weighted by points.
func (q *Quadtree[T]) Stats() Statistics {
	var s Statistics
	depthSum := 0
	var walk func(n *node[T])
	walk = func(n *node[T]) {
		s.Nodes++
		s.MaxDepth = max(s.MaxDepth, n.depth)
		s.Points += len(n.points)
		depthSum += n.depth * len(n.points)
		if n.children == nil {
			s.Leaves++
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(q.root)
	if s.Points > 0 {
		s.AverageDepth = float64(depthSum) / float64(s.Points)
	}
	return s
}

// Walk visits every stored point until fn returns false.
func (q *Quadtree[T]) Walk(fn func(Point[T]) bool) {
	var walk func(n *node[T]) bool
	walk = func(n *node[T]) bool {
		for _, p := range n.points {
			if !fn(p) {
				return false
			}
		}
		if n.children == nil {
			return true
		}
		for _, c := range n.children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(q.root)
}
