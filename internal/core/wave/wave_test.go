package wave

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/director/internal/core/events/bus"
)

func start(t *testing.T, c *Controller) {
	t.Helper()
	c.Next()
	c.Advance(c.cfg.StartDelay)
	require.False(t, c.Intermission())
}

func TestProgression(t *testing.T) {
	c := NewController(DefaultConfig(), nil, nil)
	require.Equal(t, 0, c.SpawnBudget(10, 0), "no wave yet")

	start(t, c)
	s := c.State()
	require.Equal(t, 1, s.Wave)
	require.Equal(t, 5, s.Size)
	require.Equal(t, 5, s.ArenaCapacity)
	require.Equal(t, 85.0, s.MinSpeed, "the first wave already steps the band")
	require.Equal(t, 170.0, s.MaxSpeed)

	c.Next()
	s = c.State()
	require.Equal(t, 2, s.Wave)
	require.Equal(t, 5+661/50, s.Size)
	require.Equal(t, 5+45/22, s.ArenaCapacity)
	require.Equal(t, 100.0, s.MinSpeed)
	require.Equal(t, 220.0, s.MaxSpeed)
	require.True(t, c.Intermission())

	for c.Wave() < 60 {
		c.Next()
	}
	s = c.State()
	require.Equal(t, 666, s.Size)
	require.Equal(t, 50, s.ArenaCapacity)
	require.Equal(t, 200.0, s.MinSpeed)
	require.Equal(t, 400.0, s.MaxSpeed)
}

func TestKillsAndDelays(t *testing.T) {
	events := bus.New()
	var changed, cleared int
	_, _ = events.Subscribe(bus.TypeWaveChanged, func(bus.Event) error { changed++; return nil })
	_, _ = events.Subscribe(bus.TypeWaveCleared, func(bus.Event) error { cleared++; return nil })

	c := NewController(DefaultConfig(), events, nil)
	c.Next()
	require.False(t, c.ConfirmKill(), "kills before the wave opens are ignored")

	c.Advance(2 * time.Second)
	require.True(t, c.Intermission())
	c.Advance(2 * time.Second)
	require.False(t, c.Intermission())

	for i := 0; i < 5; i++ {
		require.True(t, c.ConfirmKill())
	}
	require.True(t, c.Intermission())
	require.Equal(t, 1, cleared)
	require.Equal(t, PhaseEnding.String(), c.State().Phase)

	c.Advance(3 * time.Second)
	require.Equal(t, 1, c.Wave())
	c.Advance(time.Second)
	require.Equal(t, 2, c.Wave())
	require.Equal(t, 2, changed)
	require.Zero(t, c.State().Kills)
}

func TestSpawnBudget(t *testing.T) {
	c := NewController(DefaultConfig(), nil, nil)
	start(t, c)

	require.Equal(t, 5, c.SpawnBudget(100, 0))
	require.Equal(t, 2, c.SpawnBudget(2, 0), "limited by pool")
	require.Equal(t, 2, c.SpawnBudget(100, 3), "limited by arena")
	c.ConfirmKill()
	c.ConfirmKill()
	require.Equal(t, 1, c.SpawnBudget(100, 2), "limited by remaining wave")
	require.Equal(t, 0, c.SpawnBudget(100, 9))
}

func TestSpeedFor(t *testing.T) {
	c := NewController(DefaultConfig(), nil, nil)
	start(t, c)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		v := c.SpeedFor(10, rng)
		require.GreaterOrEqual(t, v, 95.0)
		require.Less(t, v, 180.0)
	}
}
