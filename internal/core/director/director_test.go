package director

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/pathfinding"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
)

type recorder struct {
	mu       sync.Mutex
	rebuilds int
	queries  map[string]int
	paths    map[string]int
}

func newRecorder() *recorder {
	return &recorder{queries: map[string]int{}, paths: map[string]int{}}
}

func (r *recorder) ObserveRebuild(time.Duration, int, int) {
	r.mu.Lock()
	r.rebuilds++
	r.mu.Unlock()
}

func (r *recorder) ObserveQuery(kind string, _ time.Duration) {
	r.mu.Lock()
	r.queries[kind]++
	r.mu.Unlock()
}

func (r *recorder) ObservePath(planner string, _ time.Duration, _ bool) {
	r.mu.Lock()
	r.paths[planner]++
	r.mu.Unlock()
}

func newDirector(t *testing.T, opts ...Option) *Director {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Arena = physics.Square(physics.Vec2{}, 1000)
	d, err := New(cfg, opts...)
	require.NoError(t, err)
	return d
}

func entity(id EntityID, x, y float64, active bool) Entity {
	return Entity{ID: id, Position: physics.Vec3{X: x, Y: y}, Active: active}
}

func TestRebuild(t *testing.T) {
	events := bus.New()
	var summaries []RebuildSummary
	_, _ = events.Subscribe(bus.TypeIndicesRebuilt, func(e bus.Event) error {
		summaries = append(summaries, e.Data().(RebuildSummary))
		return nil
	})
	d := newDirector(t, WithEvents(events))
	require.Equal(t, PhaseIdle, d.Phase())

	d.Rebuild([]Entity{
		entity(100, 0, 0, true),
		entity(200, 50, 0, false),
		entity(300, 5000, 0, true),
		entity(400, -20, 10, true),
	})
	require.Equal(t, PhaseQuery, d.Phase())

	c := d.Counters()
	require.Equal(t, 2, c.Indexed)
	require.Equal(t, 1, c.Rejected)
	require.Equal(t, []RebuildSummary{{Entities: 4, Indexed: 2, Rejected: 1, Took: c.LastRebuild}}, summaries)

	for key, id := range []EntityID{100, 200, 300, 400} {
		e, ok := d.FindByID(key)
		require.True(t, ok)
		require.Equal(t, id, e.ID)
		k, ok := d.KeyOf(id)
		require.True(t, ok)
		require.Equal(t, key, k)
	}
	_, ok := d.FindByID(4)
	require.False(t, ok)

	got := d.FindInRadius(physics.Vec3{}, 100)
	require.Len(t, got, 2, "inactive and rejected entities are not indexed")

	d.Rebuild([]Entity{entity(400, 1, 1, true)})
	k, ok := d.KeyOf(400)
	require.True(t, ok)
	require.Equal(t, 0, k, "keys are reassigned each rebuild")
	_, ok = d.KeyOf(100)
	require.False(t, ok)
	require.Equal(t, 1, d.Len())
}

func TestThreats(t *testing.T) {
	d := newDirector(t)
	d.Rebuild([]Entity{
		entity(1, 300, 0, true),
		entity(2, 100, 0, true),
		entity(3, 50, 0, false),
		entity(4, 200, 0, true),
	})

	t.Run("Queue", func(t *testing.T) {
		d.UpdatePriorities(physics.Vec3{})
		require.Equal(t, 3, d.ThreatCount())

		top, ok := d.PeekThreat()
		require.True(t, ok)
		require.Equal(t, EntityID(2), top.EntityID)

		var order []EntityID
		for {
			r, ok := d.NextThreat()
			if !ok {
				break
			}
			require.Equal(t, r.Distance/DefaultThreatNormalization, r.Priority)
			k, _ := d.KeyOf(r.EntityID)
			require.Equal(t, k, r.Key)
			order = append(order, r.EntityID)
		}
		require.Equal(t, []EntityID{2, 4, 1}, order)

		d.UpdatePriorities(physics.Vec3{X: 300})
		top, _ = d.PeekThreat()
		require.Equal(t, EntityID(1), top.EntityID)
		require.Equal(t, 3, d.ThreatCount(), "queue is rebuilt, not appended")
	})

	t.Run("Sorted", func(t *testing.T) {
		ranked := d.SortedByThreat(physics.Vec3{})
		require.Len(t, ranked, 3)
		ids := []EntityID{ranked[0].EntityID, ranked[1].EntityID, ranked[2].EntityID}
		require.Equal(t, []EntityID{2, 4, 1}, ids)
		require.InDelta(t, DefaultThreatScale/101, ranked[0].Priority, 1e-9)
		require.Equal(t, 1, ranked[0].Key)
	})

	t.Run("DuplicateIDsAgree", func(t *testing.T) {
		d := newDirector(t)
		d.Rebuild([]Entity{
			entity(7, 100, 0, true),
			entity(7, 400, 0, true),
		})
		ref := physics.Vec3{}

		d.UpdatePriorities(ref)
		queued := map[float64]int{}
		for {
			r, ok := d.NextThreat()
			if !ok {
				break
			}
			queued[r.Distance] = r.Key
		}
		ranked := map[float64]int{}
		for _, r := range d.SortedByThreat(ref) {
			ranked[r.Distance] = r.Key
		}
		require.Equal(t, map[float64]int{100: 0, 400: 1}, queued)
		require.Equal(t, queued, ranked)
	})
}

func TestQueryCounters(t *testing.T) {
	rec := newRecorder()
	d := newDirector(t, WithMetrics(rec))
	d.Rebuild([]Entity{entity(1, 10, 10, true)})

	_, ok := d.FindNearest(physics.Vec3{}, -1)
	require.True(t, ok)
	_, ok = d.FindNearest(physics.Vec3{}, 5)
	require.False(t, ok)
	d.FindInRadius(physics.Vec3{}, 50)
	d.SortedByThreat(physics.Vec3{})
	d.FindByID(0)
	d.KeyOf(1)
	d.UpdatePriorities(physics.Vec3{})

	require.Equal(t, uint64(5), d.Counters().TotalQueries)
	require.Equal(t, 4, rec.queries[QuerySearch])
	require.Equal(t, 1, rec.queries[QuerySort])
	require.Equal(t, 1, rec.rebuilds)
}

func TestCountersUseClock(t *testing.T) {
	now := time.Unix(0, 0)
	d := newDirector(t, WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))
	d.Rebuild(nil)
	require.Equal(t, time.Millisecond, d.Counters().LastRebuild)
	d.SortedByThreat(physics.Vec3{})
	require.Equal(t, time.Millisecond, d.Counters().LastSort)
}

func TestSpatialQueriesMatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	entities := make([]Entity, 300)
	for i := range entities {
		entities[i] = entity(EntityID(i+1), rng.Float64()*2000-1000, rng.Float64()*2000-1000, rng.Intn(4) != 0)
	}
	d := newDirector(t)
	d.Rebuild(entities)

	for round := 0; round < 30; round++ {
		center := physics.Vec3{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000}
		radius := rng.Float64() * 400

		var want []EntityID
		bestID, best := EntityID(0), math.Inf(1)
		for _, e := range entities {
			if !e.Active {
				continue
			}
			dist := physics.Distance2(center.XY(), e.Position.XY())
			if dist <= radius {
				want = append(want, e.ID)
			}
			if dist < best {
				bestID, best = e.ID, dist
			}
		}

		var got []EntityID
		for _, e := range d.FindInRadius(center, radius) {
			require.True(t, e.Active)
			got = append(got, e.ID)
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		require.Equal(t, want, got)

		nearest, ok := d.FindNearest(center, -1)
		require.True(t, ok)
		require.InDelta(t, best, physics.Distance2(center.XY(), nearest.Position.XY()), 1e-9, "expected %d", bestID)
	}
}

func TestFindPath(t *testing.T) {
	t.Run("Direct", func(t *testing.T) {
		rec := newRecorder()
		d := newDirector(t, WithMetrics(rec))
		path, ok := d.FindPath(physics.Vec3{Z: 5}, physics.Vec3{X: 500, Z: 5})
		require.True(t, ok)
		require.Equal(t, physics.Vec3{X: 500, Z: 5}, path[len(path)-1])
		require.Equal(t, 1, rec.paths[PlannerDirect])
	})

	t.Run("Grid", func(t *testing.T) {
		grid, err := pathfinding.NewGrid(3, 3, 100, physics.Vec2{})
		require.NoError(t, err)
		grid.SetBlocked(1, 1, true)
		rec := newRecorder()
		d := newDirector(t, WithMetrics(rec), WithPlanner(pathfinding.NewPlanner(grid)))

		path, ok := d.FindPath(physics.Vec3{}, physics.Vec3{X: 200, Y: 200})
		require.True(t, ok)
		require.Len(t, path, 5)
		require.Equal(t, 1, rec.paths[PlannerAStar])
		require.Zero(t, rec.paths[PlannerDirect])
	})

	t.Run("Fallback", func(t *testing.T) {
		grid, err := pathfinding.NewGrid(3, 3, 100, physics.Vec2{})
		require.NoError(t, err)
		for c := 0; c < 3; c++ {
			grid.SetBlocked(1, c, true)
		}
		rec := newRecorder()
		d := newDirector(t, WithMetrics(rec), WithPlanner(pathfinding.NewPlanner(grid)))
		_, _ = d.FindPath(physics.Vec3{}, physics.Vec3{X: 200})
		require.Equal(t, 1, rec.paths[PlannerAStar])
		require.Equal(t, 1, rec.paths[PlannerDirect])

		cfg := DefaultConfig()
		cfg.FallbackDirect = false
		strict, err := New(cfg, WithPlanner(pathfinding.NewPlanner(grid)))
		require.NoError(t, err)
		_, ok := strict.FindPath(physics.Vec3{}, physics.Vec3{X: 200})
		require.False(t, ok)
	})
}

func TestFindPaths(t *testing.T) {
	grid, err := pathfinding.NewGrid(3, 3, 100, physics.Vec2{})
	require.NoError(t, err)
	grid.SetBlocked(1, 1, true)
	reqs := []PathRequest{
		{Start: physics.Vec3{Z: 2}, Goal: physics.Vec3{X: 200, Y: 200, Z: 2}},
		{Start: physics.Vec3{}, Goal: physics.Vec3{X: 1000}},
	}

	t.Run("GridThenDirect", func(t *testing.T) {
		rec := newRecorder()
		d := newDirector(t, WithMetrics(rec), WithPlanner(pathfinding.NewPlanner(grid, pathfinding.WithWorkers(2))))
		results, err := d.FindPaths(context.Background(), reqs)
		require.NoError(t, err)
		require.Len(t, results, 2)

		require.True(t, results[0].Found)
		require.Len(t, results[0].Path, 5)
		require.Equal(t, physics.Vec3{X: 200, Y: 200, Z: 2}, results[0].Path[4])

		require.True(t, results[1].Found, "off-grid goal falls back to the direct planner")
		require.Equal(t, physics.Vec3{X: 1000}, results[1].Path[len(results[1].Path)-1])
		require.Equal(t, 2, rec.paths[PlannerAStar])
		require.Equal(t, 1, rec.paths[PlannerDirect])
	})

	t.Run("NoFallback", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FallbackDirect = false
		d, err := New(cfg, WithPlanner(pathfinding.NewPlanner(grid)))
		require.NoError(t, err)
		results, err := d.FindPaths(context.Background(), reqs)
		require.NoError(t, err)
		require.True(t, results[0].Found)
		require.False(t, results[1].Found)
	})

	t.Run("Cancelled", func(t *testing.T) {
		d := newDirector(t, WithPlanner(pathfinding.NewPlanner(grid)))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.FindPaths(ctx, reqs)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTick(t *testing.T) {
	cfg := wave.DefaultConfig()
	cfg.StartDelay = 100 * time.Millisecond
	waves := wave.NewController(cfg, nil, nil)
	waves.Next()
	d := newDirector(t, WithWaves(waves))

	require.Zero(t, d.Tick(50*time.Millisecond, nil, 10), "start delay")
	require.Equal(t, 5, d.Tick(50*time.Millisecond, nil, 10))
	require.Equal(t, 3, d.Tick(10*time.Millisecond, []Entity{entity(1, 0, 0, true), entity(2, 1, 1, true)}, 10))
	require.Equal(t, uint64(3), d.Counters().Rebuilds)

	noWaves := newDirector(t)
	require.Zero(t, noWaves.Tick(time.Millisecond, []Entity{entity(1, 0, 0, true)}, 10))
	require.Equal(t, 1, noWaves.Counters().Indexed)
}

func TestInvalidArena(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Arena = physics.Bounds{}
	_, err := New(cfg)
	require.Error(t, err)
}
