package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
)

func newSwarm(t *testing.T, size int, waves *wave.Controller) *Swarm {
	t.Helper()
	return NewSwarm(Config{
		Size:       size,
		Arena:      physics.Square(physics.Vec2{}, 100),
		BaseSpeed:  1000,
		KillRadius: 10,
		Seed:       7,
	}, waves, nil)
}

func activeCount(es []director.Entity) int {
	n := 0
	for _, e := range es {
		if e.Active {
			n++
		}
	}
	return n
}

func TestSwarmSpawn(t *testing.T) {
	s := newSwarm(t, 3, nil)
	entities, pooled := s.Step(0)
	require.Len(t, entities, 3)
	require.Equal(t, 3, pooled)
	require.Zero(t, activeCount(entities))

	s.Spawn(2)
	entities, pooled = s.Step(0)
	require.Equal(t, 1, pooled)
	require.Equal(t, 2, activeCount(entities))
	require.Equal(t, 2, s.Active())

	arena := physics.Square(physics.Vec2{}, 100)
	for _, e := range entities {
		if !e.Active {
			continue
		}
		p := e.Position.XY()
		require.True(t, arena.Contains(p))
		onEdge := p.X == arena.MinX() || p.X == arena.MaxX() || p.Y == arena.MinY() || p.Y == arena.MaxY()
		require.True(t, onEdge, "spawned at %v", p)
	}

	s.Spawn(10)
	require.Equal(t, 3, s.Active(), "spawn is capped by the pool")
}

func TestSwarmStepMovesTowardTarget(t *testing.T) {
	s := newSwarm(t, 1, nil)
	s.Spawn(1)
	before, _ := s.Step(0)
	start := physics.Distance3(before[0].Position, physics.Vec3{})

	after, _ := s.Step(10 * time.Millisecond)
	require.True(t, after[0].Active)
	require.InDelta(t, start-10, physics.Distance3(after[0].Position, physics.Vec3{}), 1e-9)
}

func TestSwarmKillsReturnToPool(t *testing.T) {
	cfg := wave.DefaultConfig()
	cfg.StartDelay = 0
	waves := wave.NewController(cfg, nil, nil)
	waves.Next()
	waves.Advance(0)
	require.False(t, waves.Intermission())

	s := newSwarm(t, 4, waves)
	s.Spawn(2)
	entities, pooled := s.Step(time.Second)
	require.Zero(t, activeCount(entities))
	require.Equal(t, 4, pooled)
	require.Zero(t, s.Active())
	require.Equal(t, 2, waves.State().Kills)
}
