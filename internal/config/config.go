// Package config loads the director's runtime configuration from YAML or
// TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/pathfinding"
	"github.com/zeusync/director/internal/core/registry"
	"github.com/zeusync/director/internal/core/spatial"
	"github.com/zeusync/director/internal/core/state"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	StorageFile   = "file"
	StorageMemory = "memory"

	HeuristicEuclidean = "euclidean"
	HeuristicManhattan = "manhattan"
)

type Config struct {
	Arena       ArenaConfig       `yaml:"arena" toml:"arena"`
	Spatial     SpatialConfig     `yaml:"spatial" toml:"spatial"`
	Registry    RegistryConfig    `yaml:"registry" toml:"registry"`
	Threat      ThreatConfig      `yaml:"threat" toml:"threat"`
	Pathfinding PathfindingConfig `yaml:"pathfinding" toml:"pathfinding"`
	History     HistoryConfig     `yaml:"history" toml:"history"`
	Waves       wave.Config       `yaml:"waves" toml:"waves"`
	Loop        LoopConfig        `yaml:"loop" toml:"loop"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Storage     StorageConfig     `yaml:"storage" toml:"storage"`
}

// ArenaConfig is the square or rectangular play area, given by its center
// and half extents.
type ArenaConfig struct {
	Center     physics.Vec2 `yaml:"center" toml:"center"`
	HalfWidth  float64      `yaml:"half_width" toml:"half_width"`
	HalfHeight float64      `yaml:"half_height" toml:"half_height"`
}

type SpatialConfig struct {
	Capacity int `yaml:"capacity" toml:"capacity"`
	MaxDepth int `yaml:"max_depth" toml:"max_depth"`
}

type RegistryConfig struct {
	InitialCapacity int     `yaml:"initial_capacity" toml:"initial_capacity"`
	LoadFactor      float64 `yaml:"load_factor" toml:"load_factor"`
}

type ThreatConfig struct {
	Normalization float64 `yaml:"normalization" toml:"normalization"`
	Scale         float64 `yaml:"scale" toml:"scale"`
}

// PathfindingConfig configures the navigation grid. With Grid.Cols or
// Grid.Rows at zero the director plans with the direct planner only.
type PathfindingConfig struct {
	Grid           GridConfig   `yaml:"grid" toml:"grid"`
	Heuristic      string       `yaml:"heuristic" toml:"heuristic"`
	CornerCutting  bool         `yaml:"corner_cutting" toml:"corner_cutting"`
	Snap           bool         `yaml:"snap" toml:"snap"`
	Tolerance      float64      `yaml:"tolerance" toml:"tolerance"`
	Workers        int          `yaml:"workers" toml:"workers"`
	FallbackDirect bool         `yaml:"fallback_direct" toml:"fallback_direct"`
	Direct         DirectConfig `yaml:"direct" toml:"direct"`
}

type GridConfig struct {
	Cols     int                `yaml:"cols" toml:"cols"`
	Rows     int                `yaml:"rows" toml:"rows"`
	CellSize float64            `yaml:"cell_size" toml:"cell_size"`
	Origin   physics.Vec2       `yaml:"origin" toml:"origin"`
	Blocked  []pathfinding.Cell `yaml:"blocked" toml:"blocked"`
}

type DirectConfig struct {
	StepSize      float64 `yaml:"step_size" toml:"step_size"`
	ArrivalRadius float64 `yaml:"arrival_radius" toml:"arrival_radius"`
	MaxSteps      int     `yaml:"max_steps" toml:"max_steps"`
}

type HistoryConfig struct {
	MaxHistory int `yaml:"max_history" toml:"max_history"`
}

// LoopConfig drives the tick loop and the built-in swarm used by the
// demo binary.
type LoopConfig struct {
	Interval   time.Duration `yaml:"interval" toml:"interval"`
	Swarm      int           `yaml:"swarm" toml:"swarm"`
	Seed       int64         `yaml:"seed" toml:"seed"`
	BaseSpeed  float64       `yaml:"base_speed" toml:"base_speed"`
	KillRadius float64       `yaml:"kill_radius" toml:"kill_radius"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level"`
	Encoding string `yaml:"encoding" toml:"encoding"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" toml:"addr"`
	StreamInterval time.Duration `yaml:"stream_interval" toml:"stream_interval"`
	TopThreats     int           `yaml:"top_threats" toml:"top_threats"`
	CORSOrigins    []string      `yaml:"cors_origins" toml:"cors_origins"`
	RateLimit      float64       `yaml:"rate_limit" toml:"rate_limit"`
	Burst          int           `yaml:"burst" toml:"burst"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" toml:"shutdown_grace"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Dir    string `yaml:"dir" toml:"dir"`
}

func Default() *Config {
	dc := director.DefaultConfig()
	return &Config{
		Arena: ArenaConfig{
			Center:     dc.Arena.Center,
			HalfWidth:  dc.Arena.Half.X,
			HalfHeight: dc.Arena.Half.Y,
		},
		Spatial: SpatialConfig{
			Capacity: spatial.DefaultCapacity,
			MaxDepth: spatial.DefaultMaxDepth,
		},
		Registry: RegistryConfig{
			InitialCapacity: registry.DefaultInitialCapacity,
			LoadFactor:      registry.DefaultLoadFactor,
		},
		Threat: ThreatConfig{
			Normalization: director.DefaultThreatNormalization,
			Scale:         director.DefaultThreatScale,
		},
		Pathfinding: PathfindingConfig{
			Grid: GridConfig{
				Cols:     100,
				Rows:     100,
				CellSize: 100,
				Origin:   physics.Vec2{X: -5000, Y: -5000},
			},
			Heuristic:      HeuristicEuclidean,
			Tolerance:      pathfinding.DefaultTolerance,
			Snap:           true,
			Workers:        4,
			FallbackDirect: true,
			Direct: DirectConfig{
				StepSize:      100,
				ArrivalRadius: 50,
				MaxSteps:      100,
			},
		},
		History: HistoryConfig{MaxHistory: state.DefaultMaxHistory},
		Waves:   wave.DefaultConfig(),
		Loop: LoopConfig{
			Interval:   50 * time.Millisecond,
			Swarm:      200,
			Seed:       1,
			BaseSpeed:  0,
			KillRadius: 75,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			StreamInterval: time.Second,
			TopThreats:     10,
			RateLimit:      50,
			Burst:          100,
			ShutdownGrace:  5 * time.Second,
		},
		Storage: StorageConfig{
			Driver: StorageFile,
			Dir:    "./slots",
		},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .yaml and .yml for YAML, .toml for TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !c.Bounds().Valid() {
		bad("arena half extents must be positive and finite")
	}
	if c.Spatial.Capacity < 1 {
		bad("spatial.capacity must be at least 1")
	}
	if c.Spatial.MaxDepth < 0 {
		bad("spatial.max_depth must not be negative")
	}
	if c.Registry.InitialCapacity < 1 {
		bad("registry.initial_capacity must be at least 1")
	}
	if c.Registry.LoadFactor <= 0 {
		bad("registry.load_factor must be positive")
	}
	if c.Threat.Normalization <= 0 || c.Threat.Scale <= 0 {
		bad("threat normalization and scale must be positive")
	}

	pf := c.Pathfinding
	if c.GridEnabled() {
		if pf.Grid.Cols < 0 || pf.Grid.Rows < 0 || pf.Grid.CellSize <= 0 {
			bad("pathfinding.grid needs positive cols, rows and cell_size")
		}
		for _, cell := range pf.Grid.Blocked {
			if cell.Col < 0 || cell.Col >= pf.Grid.Cols || cell.Row < 0 || cell.Row >= pf.Grid.Rows {
				bad("pathfinding.grid.blocked cell (%d, %d) is outside the grid", cell.Col, cell.Row)
			}
		}
	}
	if _, err := c.Heuristic(); err != nil {
		errs = append(errs, err)
	}
	if pf.Tolerance < 0 {
		bad("pathfinding.tolerance must not be negative")
	}

	if c.History.MaxHistory < 0 {
		bad("history.max_history must not be negative")
	}
	w := c.Waves
	if w.InitialSize < 1 || w.MaxPerWave < w.InitialSize || w.FinalGrowthWave < 1 {
		bad("waves need 1 <= initial_size <= max_per_wave and final_growth_wave >= 1")
	}
	if w.InitialArena < 1 || w.ArenaMax < w.InitialArena || w.ArenaCapWave < 1 {
		bad("waves need 1 <= initial_arena <= arena_max and arena_cap_wave >= 1")
	}
	if c.Loop.Interval <= 0 {
		bad("loop.interval must be positive")
	}
	if c.Loop.Swarm < 0 {
		bad("loop.swarm must not be negative")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		bad("logging.level: %v", err)
	}
	if e := c.Logging.Encoding; e != "" && e != "json" && e != "console" {
		bad("logging.encoding %q is not json or console", e)
	}
	if c.Server.StreamInterval <= 0 {
		bad("server.stream_interval must be positive")
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		bad("server rate_limit and burst must not be negative")
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Dir == "" {
			bad("storage.dir is required for the file driver")
		}
	default:
		bad("storage.driver %q is not one of %s, %s", c.Storage.Driver, StorageFile, StorageMemory)
	}
	return errors.Join(errs...)
}

func (c *Config) Bounds() physics.Bounds {
	return physics.NewBounds(c.Arena.Center, physics.Vec2{X: c.Arena.HalfWidth, Y: c.Arena.HalfHeight})
}

// GridEnabled reports whether a navigation grid is configured.
func (c *Config) GridEnabled() bool {
	return c.Pathfinding.Grid.Cols != 0 && c.Pathfinding.Grid.Rows != 0
}

func (c *Config) Heuristic() (pathfinding.Heuristic, error) {
	switch strings.ToLower(c.Pathfinding.Heuristic) {
	case "", HeuristicEuclidean:
		return pathfinding.Euclidean, nil
	case HeuristicManhattan:
		return pathfinding.Manhattan, nil
	default:
		return nil, fmt.Errorf("%w: unknown heuristic %q", ErrInvalidConfig, c.Pathfinding.Heuristic)
	}
}

func (c *Config) Director() director.Config {
	return director.Config{
		Arena:               c.Bounds(),
		QuadCapacity:        c.Spatial.Capacity,
		QuadMaxDepth:        c.Spatial.MaxDepth,
		RegistryCapacity:    c.Registry.InitialCapacity,
		RegistryLoadFactor:  c.Registry.LoadFactor,
		ThreatNormalization: c.Threat.Normalization,
		ThreatScale:         c.Threat.Scale,
		FallbackDirect:      c.Pathfinding.FallbackDirect,
	}
}

// Planner builds the grid planner, or returns nil when no grid is
// configured.
func (c *Config) Planner() (*pathfinding.Planner, error) {
	if !c.GridEnabled() {
		return nil, nil
	}
	g := c.Pathfinding.Grid
	grid, err := pathfinding.NewGrid(g.Cols, g.Rows, g.CellSize, g.Origin)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	for _, cell := range g.Blocked {
		grid.SetBlocked(cell.Col, cell.Row, true)
	}
	h, err := c.Heuristic()
	if err != nil {
		return nil, err
	}
	return pathfinding.NewPlanner(grid,
		pathfinding.WithHeuristic(h),
		pathfinding.WithTolerance(c.Pathfinding.Tolerance),
		pathfinding.WithCornerCutting(c.Pathfinding.CornerCutting),
		pathfinding.WithSnap(c.Pathfinding.Snap),
		pathfinding.WithWorkers(c.Pathfinding.Workers),
	), nil
}

// DirectOptions returns the direct planner settings.
func (c *Config) DirectOptions() []pathfinding.DirectOption {
	d := c.Pathfinding.Direct
	return []pathfinding.DirectOption{
		pathfinding.WithStepSize(d.StepSize),
		pathfinding.WithArrivalRadius(d.ArrivalRadius),
		pathfinding.WithMaxSteps(d.MaxSteps),
	}
}

func (c *Config) Logger() log.Config {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		level = log.LevelInfo
	}
	return log.Config{Level: level, Encoding: c.Logging.Encoding}
}
