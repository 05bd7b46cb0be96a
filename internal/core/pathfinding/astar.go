package pathfinding

import (
	"math"

	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/pkg/generic"
	"github.com/zeusync/director/pkg/sequence"
)

// DefaultTolerance is how far a requested start or goal may sit from a grid
// node and still resolve to it.
const DefaultTolerance = 1.0

// Heuristic estimates the remaining cost between two world positions.
type Heuristic func(a, b physics.Vec2) float64

var (
	Euclidean Heuristic = physics.Distance2
	Manhattan Heuristic = physics.Manhattan2
)

type PlannerOption func(*Planner)

func WithHeuristic(h Heuristic) PlannerOption {
	return func(p *Planner) {
		if h != nil {
			p.heuristic = h
		}
	}
}

func WithTolerance(t float64) PlannerOption {
	return func(p *Planner) {
		if t >= 0 {
			p.tolerance = t
		}
	}
}

// WithCornerCutting allows diagonal moves past a blocked orthogonal
// neighbour.
func WithCornerCutting(allow bool) PlannerOption {
	return func(p *Planner) { p.cornerCutting = allow }
}

// WithSnap resolves start and goal to their nearest node instead of
// requiring them to be within tolerance of one.
func WithSnap(snap bool) PlannerOption {
	return func(p *Planner) { p.snap = snap }
}

// WithWorkers bounds how many searches FindPaths runs at once.
func WithWorkers(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Planner runs A* over an 8-connected Grid. Search buffers are pooled per
// call, so FindPath may be called from several goroutines as long as the
// grid is not modified.
type Planner struct {
	grid          *Grid
	heuristic     Heuristic
	tolerance     float64
	cornerCutting bool
	snap          bool
	workers       int
	searches      *generic.Pool[*search]
}

func NewPlanner(grid *Grid, opts ...PlannerOption) *Planner {
	p := &Planner{
		grid:      grid,
		heuristic: Euclidean,
		tolerance: DefaultTolerance,
		workers:   4,
	}
	for _, opt := range opts {
		opt(p)
	}
	n := grid.cols * grid.rows
	p.searches = generic.NewPool(func() *search { return newSearch(n) }, (*search).reset)
	return p
}

func (p *Planner) Grid() *Grid { return p.grid }

var directions = [8]Cell{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// search is the node state of one FindPath call.
type search struct {
	g      []float64
	parent []int
	closed []bool
	open   *sequence.PriorityQueue[int]
}

func newSearch(n int) *search {
	s := &search{
		g:      make([]float64, n),
		parent: make([]int, n),
		closed: make([]bool, n),
		open:   sequence.NewPriorityQueueWithCapacity[int](64),
	}
	s.reset()
	return s
}

func (s *search) reset() {
	for i := range s.g {
		s.g[i] = math.Inf(1)
		s.parent[i] = -1
		s.closed[i] = false
	}
	s.open.Clear()
}

func (p *Planner) resolve(pos physics.Vec2) (Cell, bool) {
	if p.snap {
		return p.grid.Snap(pos)
	}
	return p.grid.CellAt(pos, p.tolerance)
}

// FindPath returns the node positions of a lowest-cost route from start to
// goal, both included. It fails when either end does not resolve to a
// walkable node or when no route exists; an unreachable goal exhausts the
// open set first.
func (p *Planner) FindPath(start, goal physics.Vec2) ([]physics.Vec2, bool) {
	from, ok := p.resolve(start)
	if !ok || !p.grid.Walkable(from) {
		return nil, false
	}
	to, ok := p.resolve(goal)
	if !ok || !p.grid.Walkable(to) {
		return nil, false
	}

	s := p.searches.Get()
	defer p.searches.Put(s)

	goalPos := p.grid.Center(to)
	startIdx, goalIdx := p.grid.index(from), p.grid.index(to)
	s.g[startIdx] = 0
	s.open.Enqueue(startIdx, p.heuristic(p.grid.Center(from), goalPos))

	diagonal := p.grid.cellSize * math.Sqrt2
	for !s.open.IsEmpty() {
		cur, _ := s.open.Dequeue()
		if s.closed[cur] {
			continue
		}
		s.closed[cur] = true
		if cur == goalIdx {
			return p.reconstruct(s.parent, cur), true
		}

		c := p.grid.cell(cur)
		for i, d := range directions {
			next := Cell{Col: c.Col + d.Col, Row: c.Row + d.Row}
			if !p.grid.Walkable(next) {
				continue
			}
			ni := p.grid.index(next)
			if s.closed[ni] {
				continue
			}
			step := p.grid.cellSize
			if i >= 4 {
				if !p.cornerCutting && (!p.grid.Walkable(Cell{c.Col + d.Col, c.Row}) || !p.grid.Walkable(Cell{c.Col, c.Row + d.Row})) {
					continue
				}
				step = diagonal
			}

			tentative := s.g[cur] + step
			if tentative >= s.g[ni] {
				continue
			}
			seen := !math.IsInf(s.g[ni], 1)
			s.g[ni] = tentative
			s.parent[ni] = cur
			f := tentative + p.heuristic(p.grid.Center(next), goalPos)
			if !seen || !s.open.UpdatePriority(ni, f) {
				s.open.Enqueue(ni, f)
			}
		}
	}
	return nil, false
}

func (p *Planner) reconstruct(parent []int, end int) []physics.Vec2 {
	var path []physics.Vec2
	for i := end; i != -1; i = parent[i] {
		path = append(path, p.grid.Center(p.grid.cell(i)))
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// PathCost sums the segment lengths of path.
func PathCost(path []physics.Vec2) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += physics.Distance2(path[i-1], path[i])
	}
	return total
}
