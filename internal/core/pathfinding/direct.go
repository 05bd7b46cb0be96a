package pathfinding

import "github.com/zeusync/director/internal/core/systems/physics"

// LineChecker reports whether the straight segment between two positions is
// obstructed. *Grid implements it.
type LineChecker interface {
	LineBlocked(from, to physics.Vec2) bool
}

type DirectOption func(*DirectPlanner)

func WithStepSize(s float64) DirectOption {
	return func(d *DirectPlanner) {
		if s > 0 {
			d.step = s
		}
	}
}

// WithArrivalRadius sets the per-axis distance at which the walker counts as
// having reached the goal.
func WithArrivalRadius(r float64) DirectOption {
	return func(d *DirectPlanner) {
		if r >= 0 {
			d.arrival = r
		}
	}
}

func WithMaxSteps(n int) DirectOption {
	return func(d *DirectPlanner) {
		if n > 0 {
			d.maxSteps = n
		}
	}
}

// DirectPlanner walks straight toward the goal in fixed steps and sidesteps
// to the right whenever the next step is obstructed. It needs no graph and
// gives up after a bounded number of steps.
type DirectPlanner struct {
	checker  LineChecker
	step     float64
	arrival  float64
	maxSteps int
}

// NewDirectPlanner creates a planner probing obstacles through checker. A nil
// checker treats the world as open.
func NewDirectPlanner(checker LineChecker, opts ...DirectOption) *DirectPlanner {
	d := &DirectPlanner{checker: checker, step: 100, arrival: 50, maxSteps: 100}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FindPath returns the walked waypoints, starting at start and ending at goal.
// The goal is always appended; the result reports whether the walker arrived
// within the step budget.
func (d *DirectPlanner) FindPath(start, goal physics.Vec2) ([]physics.Vec2, bool) {
	path := []physics.Vec2{start}
	cur := start
	steps := 0
	for !cur.Equals(goal, d.arrival) && steps < d.maxSteps {
		dir := goal.Sub(cur).Normalize()
		next := cur.Add(dir.Scale(d.step))
		if d.checker != nil && d.checker.LineBlocked(cur, next) {
			next = cur.Add(dir.Right().Scale(d.step))
		}
		cur = next
		path = append(path, cur)
		steps++
	}
	path = append(path, goal)
	return path, steps < d.maxSteps
}
