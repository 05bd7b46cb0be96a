package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/director/internal/core/state"
	"github.com/zeusync/director/internal/core/systems/physics"
)

func sample() state.Snapshot {
	return state.Snapshot{
		ID:             "5a1c",
		PlayerHealth:   80,
		PlayerPoints:   1200,
		CurrentWave:    4,
		WaveKills:      2,
		CurrentAmmo:    7,
		HolsteredAmmo:  32,
		EnemyPositions: []physics.Vec3{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 5, Z: 0}},
		EnemyHealth:    []int{100, 45},
		Timestamp:      12.5,
	}
}

func TestStores(t *testing.T) {
	file, err := NewFileStore(filepath.Join(t.TempDir(), "saves"))
	require.NoError(t, err)

	stores := map[string]state.Store{
		"Memory": NewMemoryStore(),
		"File":   file,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx, "quick")
			require.ErrorIs(t, err, state.ErrSlotNotFound)

			require.NoError(t, store.Save(ctx, "quick", sample()))
			require.NoError(t, store.Save(ctx, "auto", sample()))

			got, err := store.Load(ctx, "quick")
			require.NoError(t, err)
			require.Equal(t, sample(), got)

			slots, err := store.List(ctx)
			require.NoError(t, err)
			sort.Strings(slots)
			require.Equal(t, []string{"auto", "quick"}, slots)

			require.NoError(t, store.Delete(ctx, "auto"))
			require.ErrorIs(t, store.Delete(ctx, "auto"), state.ErrSlotNotFound)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			require.ErrorIs(t, store.Save(cancelled, "quick", sample()), context.Canceled)
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "quick", sample()))
	data, err := os.ReadFile(filepath.Join(dir, "quick.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "player_points: 1200")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("player_health: ["), 0o644))
	_, err = store.Load(ctx, "broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, state.ErrSlotNotFound)

	require.ErrorIs(t, store.Save(ctx, "a/b", sample()), state.ErrInvalidSlot)
	require.Equal(t, Statistics{Writes: 1}, store.Statistics())
}

func TestManagerWithFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := state.NewManager(store)
	saved := m.Capture(state.CaptureInput{PlayerHealth: 55, EnemyHealth: []int{1, 2}})
	require.NoError(t, m.Save(ctx, "slot1"))

	restored, err := state.NewManager(store).Load(ctx, "slot1")
	require.NoError(t, err)
	require.Equal(t, saved, restored)
	require.True(t, saved.Equal(restored))
}
