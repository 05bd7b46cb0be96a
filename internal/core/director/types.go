package director

import (
	"time"

	"github.com/zeusync/director/internal/core/systems/physics"
)

// EntityID is the caller's stable identity for an agent.
type EntityID uint64

// Entity is one agent as submitted for a rebuild.
type Entity struct {
	ID       EntityID     `json:"id"`
	Position physics.Vec3 `json:"position"`
	Active   bool         `json:"active"`
}

// Handle indexes the director's entity table for the current rebuild.
type Handle int

// ThreatRecord ranks one active agent against a reference point. Key is the
// agent's registry key in the current rebuild.
type ThreatRecord struct {
	Key      int      `json:"key"`
	EntityID EntityID `json:"entity_id"`
	Priority float64  `json:"priority"`
	Distance float64  `json:"distance"`
}

// PathRequest is one start/goal pair for FindPaths.
type PathRequest struct {
	Start physics.Vec3 `json:"start"`
	Goal  physics.Vec3 `json:"goal"`
}

// PathResult is the outcome of one PathRequest.
type PathResult struct {
	Found bool           `json:"found"`
	Path  []physics.Vec3 `json:"path"`
}

// Counters are the director's performance counters.
type Counters struct {
	LastRebuild  time.Duration `json:"last_rebuild"`
	LastSort     time.Duration `json:"last_sort"`
	LastSearch   time.Duration `json:"last_search"`
	TotalQueries uint64        `json:"total_queries"`
	Rebuilds     uint64        `json:"rebuilds"`
	Indexed      int           `json:"indexed"`
	Rejected     int           `json:"rejected"`
}

// RebuildSummary is the payload of the indices.rebuilt event.
type RebuildSummary struct {
	Entities int           `json:"entities"`
	Indexed  int           `json:"indexed"`
	Rejected int           `json:"rejected"`
	Took     time.Duration `json:"took"`
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseRebuild
	PhaseQuery
)

func (p Phase) String() string {
	switch p {
	case PhaseRebuild:
		return "rebuild"
	case PhaseQuery:
		return "query"
	default:
		return "idle"
	}
}

// Query kinds reported to a MetricsRecorder.
const (
	QuerySearch = "search"
	QuerySort   = "sort"
)

// Planner names reported to a MetricsRecorder.
const (
	PlannerAStar  = "astar"
	PlannerDirect = "direct"
)

// MetricsRecorder receives timings from the director. Implementations must be
// cheap; they run inline with the simulation loop.
type MetricsRecorder interface {
	ObserveRebuild(took time.Duration, indexed, rejected int)
	ObserveQuery(kind string, took time.Duration)
	ObservePath(planner string, took time.Duration, found bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRebuild(time.Duration, int, int)  {}
func (nopRecorder) ObserveQuery(string, time.Duration)      {}
func (nopRecorder) ObservePath(string, time.Duration, bool) {}
