// Package simulation provides a self-contained entity source for driving a
// director without a game client attached.
package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
)

var _ director.EntitySource = (*Swarm)(nil)

type Config struct {
	// Size is the pool of agents. Agents start pooled and are spawned on the
	// arena edge as the wave budget allows.
	Size       int
	Arena      physics.Bounds
	Target     physics.Vec3
	BaseSpeed  float64
	KillRadius float64
	Seed       int64
}

type agent struct {
	entity director.Entity
	speed  float64
}

// Swarm walks agents straight at a target. An agent that reaches the kill
// radius is confirmed as a kill and returned to the pool.
type Swarm struct {
	cfg    Config
	waves  *wave.Controller
	rng    *rand.Rand
	logger log.Log
	agents []agent
	active int
}

func NewSwarm(cfg Config, waves *wave.Controller, logger log.Log) *Swarm {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Swarm{
		cfg:    cfg,
		waves:  waves,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logger.Named("swarm"),
		agents: make([]agent, cfg.Size),
	}
	for i := range s.agents {
		s.agents[i].entity.ID = director.EntityID(i + 1)
	}
	return s
}

// Step moves every active agent toward the target by speed·dt.
func (s *Swarm) Step(dt time.Duration) ([]director.Entity, int) {
	secs := dt.Seconds()
	kills := 0
	for i := range s.agents {
		a := &s.agents[i]
		if !a.entity.Active {
			continue
		}
		to := s.cfg.Target.Sub(a.entity.Position)
		dist := to.Len()
		if move := a.speed * secs; move < dist {
			a.entity.Position = a.entity.Position.Add(to.Scale(move / dist))
			dist -= move
		} else {
			a.entity.Position = s.cfg.Target
			dist = 0
		}
		if dist <= s.cfg.KillRadius {
			a.entity.Active = false
			s.active--
			kills++
			if s.waves != nil {
				s.waves.ConfirmKill()
			}
		}
	}
	if kills > 0 {
		s.logger.Debug("agents reached target", log.Int("kills", kills), log.Int("active", s.active))
	}

	out := make([]director.Entity, len(s.agents))
	for i := range s.agents {
		out[i] = s.agents[i].entity
	}
	return out, len(s.agents) - s.active
}

// Spawn activates up to n pooled agents at random points on the arena edge.
func (s *Swarm) Spawn(n int) {
	spawned := 0
	for i := range s.agents {
		if spawned == n {
			break
		}
		a := &s.agents[i]
		if a.entity.Active {
			continue
		}
		a.entity.Active = true
		a.entity.Position = s.edgePoint().Vec3(s.cfg.Target.Z)
		a.speed = s.cfg.BaseSpeed
		if s.waves != nil {
			a.speed = s.waves.SpeedFor(s.cfg.BaseSpeed, s.rng)
		}
		spawned++
	}
	s.active += spawned
	if spawned > 0 {
		s.logger.Debug("agents spawned", log.Int("spawned", spawned), log.Int("active", s.active))
	}
}

// Active is the number of agents currently in the arena.
func (s *Swarm) Active() int { return s.active }

func (s *Swarm) edgePoint() physics.Vec2 {
	b := s.cfg.Arena
	t := s.rng.Float64()
	switch s.rng.Intn(4) {
	case 0:
		return physics.Vec2{X: lerp(b.MinX(), b.MaxX(), t), Y: b.MaxY()}
	case 1:
		return physics.Vec2{X: b.MaxX(), Y: lerp(b.MinY(), b.MaxY(), t)}
	case 2:
		return physics.Vec2{X: lerp(b.MinX(), b.MaxX(), t), Y: b.MinY()}
	default:
		return physics.Vec2{X: b.MinX(), Y: lerp(b.MinY(), b.MaxY(), t)}
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*math.Min(math.Max(t, 0), 1) }
