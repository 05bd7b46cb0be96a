package injector

import (
	"fmt"
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zeusync/director/internal/config"
	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/pathfinding"
	"github.com/zeusync/director/internal/core/state"
	"github.com/zeusync/director/internal/core/storage"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
	"github.com/zeusync/director/internal/metrics"
	"github.com/zeusync/director/internal/server"
	"github.com/zeusync/director/internal/simulation"
)

// ProviderSet builds an App from a config path.
var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEvents,
	ProvideMetrics,
	wire.Bind(new(director.MetricsRecorder), new(*metrics.Collector)),
	ProvideWaves,
	ProvidePlanner,
	ProvideDirector,
	ProvideSwarm,
	wire.Bind(new(director.EntitySource), new(*simulation.Swarm)),
	ProvideRunner,
	ProvideStore,
	ProvideState,
	ProvideRouter,
	NewApp,
)

// ProvideConfig loads path, or returns the defaults when path is empty.
func ProvideConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.NewWithConfig(cfg.Logger())
}

func ProvideEvents() bus.EventBus {
	return bus.New()
}

// ProvideMetrics registers the director collectors on a fresh registry
// together with the Go runtime and process collectors, and observes the
// event bus.
func ProvideMetrics(events bus.EventBus) (*metrics.Collector, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	c, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, err
	}
	events.AddObserver(c)
	return c, nil
}

func ProvideWaves(cfg *config.Config, events bus.EventBus, logger log.Log) *wave.Controller {
	return wave.NewController(cfg.Waves, events, logger)
}

func ProvidePlanner(cfg *config.Config) (*pathfinding.Planner, error) {
	return cfg.Planner()
}

func ProvideDirector(
	cfg *config.Config,
	planner *pathfinding.Planner,
	waves *wave.Controller,
	events bus.EventBus,
	logger log.Log,
	recorder director.MetricsRecorder,
) (*director.Director, error) {
	opts := []director.Option{
		director.WithWaves(waves),
		director.WithEvents(events),
		director.WithLogger(logger),
		director.WithMetrics(recorder),
	}
	var checker pathfinding.LineChecker
	if planner != nil {
		opts = append(opts, director.WithPlanner(planner))
		checker = planner.Grid()
	}
	opts = append(opts, director.WithDirectPlanner(pathfinding.NewDirectPlanner(checker, cfg.DirectOptions()...)))
	return director.New(cfg.Director(), opts...)
}

// ProvideSwarm drives the director with agents that walk at the arena
// center.
func ProvideSwarm(cfg *config.Config, waves *wave.Controller, logger log.Log) *simulation.Swarm {
	return simulation.NewSwarm(simulation.Config{
		Size:       cfg.Loop.Swarm,
		Arena:      cfg.Bounds(),
		Target:     cfg.Arena.Center.Vec3(0),
		BaseSpeed:  cfg.Loop.BaseSpeed,
		KillRadius: cfg.Loop.KillRadius,
		Seed:       cfg.Loop.Seed,
	}, waves, logger)
}

func ProvideRunner(cfg *config.Config, d *director.Director, source director.EntitySource, logger log.Log) *director.Runner {
	return director.NewRunner(d, source, cfg.Loop.Interval, logger)
}

func ProvideStore(cfg *config.Config) (state.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewFileStore(cfg.Storage.Dir)
}

func ProvideState(cfg *config.Config, store state.Store, events bus.EventBus, logger log.Log) *state.Manager {
	return state.NewManager(store,
		state.WithMaxHistory(cfg.History.MaxHistory),
		state.WithEvents(events),
		state.WithLogger(logger),
	)
}

func ProvideRouter(
	cfg *config.Config,
	runner *director.Runner,
	manager *state.Manager,
	collector *metrics.Collector,
	logger log.Log,
) (http.Handler, error) {
	return server.NewRouter(server.Options{
		Runner:         runner,
		State:          manager,
		Metrics:        collector.Handler(),
		Logger:         logger,
		Reference:      physics.Vec3{X: cfg.Arena.Center.X, Y: cfg.Arena.Center.Y},
		StreamInterval: cfg.Server.StreamInterval,
		TopThreats:     cfg.Server.TopThreats,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
	})
}
