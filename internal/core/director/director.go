package director

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/pathfinding"
	"github.com/zeusync/director/internal/core/registry"
	"github.com/zeusync/director/internal/core/spatial"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
	"github.com/zeusync/director/pkg/sequence"
)

const (
	DefaultThreatNormalization = 100.0
	DefaultThreatScale         = 10000.0
)

// Config sizes the director's indices.
type Config struct {
	Arena               physics.Bounds
	QuadCapacity        int
	QuadMaxDepth        int
	RegistryCapacity    int
	RegistryLoadFactor  float64
	ThreatNormalization float64
	ThreatScale         float64
	// FallbackDirect retries with the direct planner when grid search fails.
	FallbackDirect bool
}

func DefaultConfig() Config {
	return Config{
		Arena:               physics.Square(physics.Vec2{}, 5000),
		QuadCapacity:        spatial.DefaultCapacity,
		QuadMaxDepth:        spatial.DefaultMaxDepth,
		RegistryCapacity:    registry.DefaultInitialCapacity,
		RegistryLoadFactor:  registry.DefaultLoadFactor,
		ThreatNormalization: DefaultThreatNormalization,
		ThreatScale:         DefaultThreatScale,
		FallbackDirect:      true,
	}
}

type Option func(*Director)

// WithPlanner routes FindPath through grid A*.
func WithPlanner(p *pathfinding.Planner) Option {
	return func(d *Director) { d.planner = p }
}

// WithDirectPlanner replaces the default open-world direct planner.
func WithDirectPlanner(p *pathfinding.DirectPlanner) Option {
	return func(d *Director) { d.direct = p }
}

func WithWaves(w *wave.Controller) Option {
	return func(d *Director) { d.waves = w }
}

func WithEvents(events bus.EventBus) Option {
	return func(d *Director) { d.events = events }
}

func WithLogger(logger log.Log) Option {
	return func(d *Director) { d.logger = logger }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(d *Director) { d.metrics = m }
}

// WithClock replaces the time source used for counters.
func WithClock(now func() time.Time) Option {
	return func(d *Director) { d.now = now }
}

// Director rebuilds its spatial and key indices from the full entity set once
// per cycle and answers queries against them. Every query reflects the most
// recent Rebuild.
//
// Director is single threaded. Use Runner to share one across goroutines.
type Director struct {
	cfg      Config
	entities []Entity
	byKey    *registry.Table[int, Handle]
	byID     *registry.Table[EntityID, int]
	tree     *spatial.Quadtree[Handle]
	threats  *sequence.PriorityQueue[ThreatRecord]
	planner  *pathfinding.Planner
	direct   *pathfinding.DirectPlanner
	waves    *wave.Controller
	events   bus.EventBus
	logger   log.Log
	metrics  MetricsRecorder
	now      func() time.Time
	phase    Phase
	counters Counters
}

// New creates a director with empty indices.
func New(cfg Config, opts ...Option) (*Director, error) {
	if cfg.ThreatNormalization <= 0 {
		cfg.ThreatNormalization = DefaultThreatNormalization
	}
	if cfg.ThreatScale <= 0 {
		cfg.ThreatScale = DefaultThreatScale
	}

	tree, err := spatial.New[Handle](cfg.Arena,
		spatial.WithCapacity(cfg.QuadCapacity),
		spatial.WithMaxDepth(cfg.QuadMaxDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("create spatial index: %w", err)
	}

	regOpts := []registry.Option{
		registry.WithInitialCapacity(cfg.RegistryCapacity),
		registry.WithLoadFactor(cfg.RegistryLoadFactor),
	}
	d := &Director{
		cfg:     cfg,
		byKey:   registry.New[int, Handle](registry.IntHasher[int](), regOpts...),
		byID:    registry.New[EntityID, int](registry.IntHasher[EntityID](), regOpts...),
		tree:    tree,
		threats: sequence.NewPriorityQueue[ThreatRecord](),
		metrics: nopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewNop()
	}
	d.logger = d.logger.Named("director")
	if d.direct == nil {
		var checker pathfinding.LineChecker
		if d.planner != nil {
			checker = d.planner.Grid()
		}
		d.direct = pathfinding.NewDirectPlanner(checker)
	}
	return d, nil
}

// Rebuild replaces the entity table and regenerates every index from it.
// Keys 0..n-1 follow the order of entities. Only active entities enter the
// spatial index; those outside the arena are counted as rejected.
func (d *Director) Rebuild(entities []Entity) {
	start := d.now()
	d.phase = PhaseRebuild

	d.entities = append(d.entities[:0], entities...)
	d.byKey.Clear()
	d.byID.Clear()
	d.tree.Clear()

	indexed, rejected := 0, 0
	for i, e := range d.entities {
		d.byKey.Insert(i, Handle(i))
		d.byID.Insert(e.ID, i)
		if !e.Active {
			continue
		}
		if d.tree.Insert(spatial.Point[Handle]{Pos: e.Position.XY(), Data: Handle(i)}) {
			indexed++
			continue
		}
		rejected++
		d.logger.Warn("entity outside arena",
			log.Uint64("id", uint64(e.ID)),
			log.Float64("x", e.Position.X),
			log.Float64("y", e.Position.Y),
		)
	}

	took := d.now().Sub(start)
	d.counters.LastRebuild = took
	d.counters.Indexed = indexed
	d.counters.Rejected = rejected
	d.counters.Rebuilds++
	d.metrics.ObserveRebuild(took, indexed, rejected)
	d.phase = PhaseQuery

	d.logger.Debug("indices rebuilt",
		log.Int("entities", len(d.entities)),
		log.Int("indexed", indexed),
		log.Int("rejected", rejected),
		log.Duration("took", took),
	)
	if d.events != nil {
		summary := RebuildSummary{Entities: len(d.entities), Indexed: indexed, Rejected: rejected, Took: took}
		if err := d.events.Publish(bus.NewEvent(bus.TypeIndicesRebuilt, "director", summary)); err != nil {
			d.logger.Warn("rebuild event handler failed", log.Error(err))
		}
	}
}

// UpdatePriorities refills the threat queue from active entities. Priority is
// distance to ref divided by the threat normalization, so the closest agent
// dequeues first.
func (d *Director) UpdatePriorities(ref physics.Vec3) {
	d.threats.Clear()
	for i, e := range d.entities {
		if !e.Active {
			continue
		}
		dist := physics.Distance3(e.Position, ref)
		priority := dist / d.cfg.ThreatNormalization
		d.threats.Enqueue(ThreatRecord{Key: i, EntityID: e.ID, Priority: priority, Distance: dist}, priority)
	}
}

// NextThreat removes and returns the most urgent threat.
func (d *Director) NextThreat() (ThreatRecord, bool) { return d.threats.Dequeue() }

func (d *Director) PeekThreat() (ThreatRecord, bool) { return d.threats.Peek() }

func (d *Director) ThreatCount() int { return d.threats.Len() }

// FindNearest returns the active entity closest to pos on the arena plane. A
// negative maxDistance means no limit.
func (d *Director) FindNearest(pos physics.Vec3, maxDistance float64) (Entity, bool) {
	defer d.track(QuerySearch, d.now())
	p, ok := d.tree.Nearest(pos.XY(), maxDistance)
	if !ok {
		return Entity{}, false
	}
	return d.entities[p.Data], true
}

// FindInRadius returns every active entity within radius of center on the
// arena plane.
func (d *Director) FindInRadius(center physics.Vec3, radius float64) []Entity {
	defer d.track(QuerySearch, d.now())
	points := d.tree.QueryRadius(center.XY(), radius)
	out := make([]Entity, len(points))
	for i, p := range points {
		out[i] = d.entities[p.Data]
	}
	return out
}

// SortedByThreat scores every active entity as scale/(distance+1) and returns
// them highest score first.
func (d *Director) SortedByThreat(ref physics.Vec3) []ThreatRecord {
	defer d.track(QuerySort, d.now())
	out := make([]ThreatRecord, 0, len(d.entities))
	for i, e := range d.entities {
		if !e.Active {
			continue
		}
		dist := physics.Distance3(e.Position, ref)
		out = append(out, ThreatRecord{
			Key:      i,
			EntityID: e.ID,
			Priority: d.cfg.ThreatScale / (dist + 1),
			Distance: dist,
		})
	}
	sequence.QuickSort(out, func(a, b ThreatRecord) bool { return a.Priority > b.Priority })
	return out
}

// FindByID returns the entity registered under key in the current rebuild.
func (d *Director) FindByID(key int) (Entity, bool) {
	defer d.track(QuerySearch, d.now())
	h, ok := d.byKey.Find(key)
	if !ok {
		return Entity{}, false
	}
	return d.entities[h], true
}

// KeyOf returns the registry key assigned to id by the current rebuild. When
// ids repeat, the last occurrence wins.
func (d *Director) KeyOf(id EntityID) (int, bool) {
	return d.byID.Find(id)
}

// FindPath plans a route on the arena plane. Waypoints carry the start
// height.
func (d *Director) FindPath(start, goal physics.Vec3) ([]physics.Vec3, bool) {
	from, to := start.XY(), goal.XY()
	if d.planner != nil {
		t := d.now()
		path, ok := d.planner.FindPath(from, to)
		d.metrics.ObservePath(PlannerAStar, d.now().Sub(t), ok)
		if ok {
			return lift(path, start.Z), true
		}
		if !d.cfg.FallbackDirect {
			return nil, false
		}
	}
	t := d.now()
	path, ok := d.direct.FindPath(from, to)
	d.metrics.ObservePath(PlannerDirect, d.now().Sub(t), ok)
	return lift(path, start.Z), ok
}

// FindPaths plans a batch of routes. Grid searches run concurrently on the
// planner's workers; requests the grid cannot serve fall back to the direct
// planner when enabled. Results are in request order.
func (d *Director) FindPaths(ctx context.Context, reqs []PathRequest) ([]PathResult, error) {
	results := make([]PathResult, len(reqs))
	if d.planner != nil {
		batch := make([]pathfinding.Request, len(reqs))
		for i, req := range reqs {
			batch[i] = pathfinding.Request{Start: req.Start.XY(), Goal: req.Goal.XY()}
		}
		t := d.now()
		planned, err := d.planner.FindPaths(ctx, batch)
		took := d.now().Sub(t)
		if err != nil {
			return nil, fmt.Errorf("director: plan batch: %w", err)
		}
		for i, res := range planned {
			d.metrics.ObservePath(PlannerAStar, took/time.Duration(max(len(reqs), 1)), res.Found)
			if res.Found {
				results[i] = PathResult{Found: true, Path: lift(res.Path, reqs[i].Start.Z)}
			}
		}
		if !d.cfg.FallbackDirect {
			return results, nil
		}
	}
	for i, req := range reqs {
		if results[i].Found {
			continue
		}
		t := d.now()
		path, ok := d.direct.FindPath(req.Start.XY(), req.Goal.XY())
		d.metrics.ObservePath(PlannerDirect, d.now().Sub(t), ok)
		results[i] = PathResult{Found: ok, Path: lift(path, req.Start.Z)}
	}
	return results, nil
}

func lift(path []physics.Vec2, z float64) []physics.Vec3 {
	out := make([]physics.Vec3, len(path))
	for i, p := range path {
		out[i] = p.Vec3(z)
	}
	return out
}

// Tick runs one simulation cycle: it advances the wave controller, rebuilds
// the indices and returns how many agents the spawner may add.
func (d *Director) Tick(dt time.Duration, entities []Entity, pooled int) int {
	d.phase = PhaseIdle
	if d.waves != nil {
		d.waves.Advance(dt)
	}
	d.Rebuild(entities)
	if d.waves == nil {
		return 0
	}
	return d.waves.SpawnBudget(pooled, d.counters.Indexed)
}

func (d *Director) track(kind string, start time.Time) {
	took := d.now().Sub(start)
	d.counters.TotalQueries++
	if kind == QuerySort {
		d.counters.LastSort = took
	} else {
		d.counters.LastSearch = took
	}
	d.metrics.ObserveQuery(kind, took)
}

func (d *Director) Counters() Counters { return d.counters }

func (d *Director) Phase() Phase { return d.phase }

// Len is the size of the entity table, active or not.
func (d *Director) Len() int { return len(d.entities) }

// Entities returns a copy of the entity table in key order.
func (d *Director) Entities() []Entity {
	out := make([]Entity, len(d.entities))
	copy(out, d.entities)
	return out
}

func (d *Director) Waves() *wave.Controller { return d.waves }

func (d *Director) Arena() physics.Bounds { return d.tree.Bounds() }

// IndexStats describes the spatial index after the last rebuild.
func (d *Director) IndexStats() spatial.Statistics { return d.tree.Stats() }
