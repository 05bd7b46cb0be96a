package wave

import (
	"math/rand"
	"time"

	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/observability/log"
)

// Config holds the wave progression curve.
type Config struct {
	InitialSize     int           `yaml:"initial_size" toml:"initial_size"`
	FinalGrowthWave int           `yaml:"final_growth_wave" toml:"final_growth_wave"`
	MaxPerWave      int           `yaml:"max_per_wave" toml:"max_per_wave"`
	InitialArena    int           `yaml:"initial_arena" toml:"initial_arena"`
	ArenaMax        int           `yaml:"arena_max" toml:"arena_max"`
	ArenaCapWave    int           `yaml:"arena_cap_wave" toml:"arena_cap_wave"`
	StartDelay      time.Duration `yaml:"start_delay" toml:"start_delay"`
	EndDelay        time.Duration `yaml:"end_delay" toml:"end_delay"`
	MinSpeed        Band          `yaml:"min_speed" toml:"min_speed"`
	MaxSpeed        Band          `yaml:"max_speed" toml:"max_speed"`
}

// Band is a walk speed bound that grows by Step each wave up to Final.
type Band struct {
	Initial float64 `yaml:"initial" toml:"initial"`
	Final   float64 `yaml:"final" toml:"final"`
	Step    float64 `yaml:"step" toml:"step"`
}

func DefaultConfig() Config {
	return Config{
		InitialSize:     5,
		FinalGrowthWave: 50,
		MaxPerWave:      666,
		InitialArena:    5,
		ArenaMax:        50,
		ArenaCapWave:    22,
		StartDelay:      4 * time.Second,
		EndDelay:        4 * time.Second,
		MinSpeed:        Band{Initial: 70, Final: 200, Step: 15},
		MaxSpeed:        Band{Initial: 120, Final: 400, Step: 50},
	}
}

type Phase uint8

const (
	PhaseNotStarted Phase = iota
	// PhaseStarting counts down before spawning begins.
	PhaseStarting
	PhaseActive
	// PhaseEnding counts down after the last kill of a wave.
	PhaseEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	default:
		return "not_started"
	}
}

// State is a read-only view of the controller.
type State struct {
	Wave          int     `json:"wave"`
	Size          int     `json:"size"`
	Kills         int     `json:"kills"`
	ArenaCapacity int     `json:"arena_capacity"`
	MinSpeed      float64 `json:"min_speed"`
	MaxSpeed      float64 `json:"max_speed"`
	Phase         string  `json:"phase"`
	Intermission  bool    `json:"intermission"`
}

// Controller tracks wave number, kill count and spawn limits. It is driven
// from the simulation loop and is not safe for concurrent use.
type Controller struct {
	cfg      Config
	events   bus.EventBus
	logger   log.Log
	wave     int
	kills    int
	size     int
	arenaCap int
	minSpeed float64
	maxSpeed float64
	phase    Phase
	timer    time.Duration
}

// NewController creates a controller before its first wave. events may be nil.
func NewController(cfg Config, events bus.EventBus, logger log.Log) *Controller {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		events:   events,
		logger:   logger.Named("wave"),
		arenaCap: cfg.InitialArena,
		minSpeed: cfg.MinSpeed.Initial,
		maxSpeed: cfg.MaxSpeed.Initial,
	}
}

// Next starts the following wave and its start delay.
func (c *Controller) Next() {
	c.wave++
	c.kills = 0
	c.size = c.waveSize()
	c.arenaCap = c.arenaCapacity()
	// every wave, the first included, steps the speed bands
	c.minSpeed = min(c.cfg.MinSpeed.Final, c.minSpeed+c.cfg.MinSpeed.Step)
	c.maxSpeed = min(c.cfg.MaxSpeed.Final, c.maxSpeed+c.cfg.MaxSpeed.Step)
	c.phase = PhaseStarting
	c.timer = c.cfg.StartDelay

	c.logger.Info("wave changed",
		log.Int("wave", c.wave),
		log.Int("size", c.size),
		log.Int("arena_capacity", c.arenaCap),
	)
	c.publish(bus.TypeWaveChanged)
}

// waveSize grows linearly from InitialSize to MaxPerWave over FinalGrowthWave
// waves.
func (c *Controller) waveSize() int {
	grow := 0
	if c.cfg.FinalGrowthWave > 0 {
		grow = (c.wave - 1) * (c.cfg.MaxPerWave - c.cfg.InitialSize) / c.cfg.FinalGrowthWave
	}
	return min(c.cfg.MaxPerWave, c.cfg.InitialSize+grow)
}

// arenaCapacity is computed from InitialArena every wave, so it does not
// compound.
func (c *Controller) arenaCapacity() int {
	grow := 0
	if c.cfg.ArenaCapWave > 0 {
		grow = (c.wave - 1) * (c.cfg.ArenaMax - c.cfg.InitialArena) / c.cfg.ArenaCapWave
	}
	return min(c.cfg.ArenaMax, c.cfg.InitialArena+grow)
}

// Advance counts down the active delay. A finished start delay opens the
// wave; a finished end delay starts the next one.
func (c *Controller) Advance(dt time.Duration) {
	if c.phase != PhaseStarting && c.phase != PhaseEnding {
		return
	}
	c.timer -= dt
	if c.timer > 0 {
		return
	}
	c.timer = 0
	if c.phase == PhaseStarting {
		c.phase = PhaseActive
		return
	}
	c.Next()
}

// ConfirmKill records one kill. Once kills reach the wave size the end delay
// starts. Returns false when no wave is active.
func (c *Controller) ConfirmKill() bool {
	if c.phase != PhaseActive {
		return false
	}
	c.kills++
	if c.kills >= c.size {
		c.phase = PhaseEnding
		c.timer = c.cfg.EndDelay
		c.logger.Info("wave cleared", log.Int("wave", c.wave), log.Int("kills", c.kills))
		c.publish(bus.TypeWaveCleared)
	}
	return true
}

// SpawnBudget is how many agents the spawner may add now, given pooled
// agents available and agents already in the arena.
func (c *Controller) SpawnBudget(pooled, inArena int) int {
	if c.phase != PhaseActive {
		return 0
	}
	n := min(pooled, c.arenaCap-inArena, c.size-c.kills-inArena)
	return max(n, 0)
}

// SpeedFor draws a walk speed inside the current band and adds base.
func (c *Controller) SpeedFor(base float64, rng *rand.Rand) float64 {
	return base + c.minSpeed + rng.Float64()*(c.maxSpeed-c.minSpeed)
}

// Intermission reports whether the controller is between waves.
func (c *Controller) Intermission() bool {
	return c.phase != PhaseActive
}

func (c *Controller) Wave() int { return c.wave }

func (c *Controller) State() State {
	return State{
		Wave:          c.wave,
		Size:          c.size,
		Kills:         c.kills,
		ArenaCapacity: c.arenaCap,
		MinSpeed:      c.minSpeed,
		MaxSpeed:      c.maxSpeed,
		Phase:         c.phase.String(),
		Intermission:  c.Intermission(),
	}
}

func (c *Controller) publish(typ string) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(bus.NewEvent(typ, "wave", c.State())); err != nil {
		c.logger.Warn("wave event handler failed", log.String("type", typ), log.Error(err))
	}
}
