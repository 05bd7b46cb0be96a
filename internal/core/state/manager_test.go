package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/systems/physics"
)

// mapStore is a minimal Store for exercising the manager.
type mapStore struct {
	slots map[string]Snapshot
	loads int
	fail  error
}

func newMapStore() *mapStore { return &mapStore{slots: map[string]Snapshot{}} }

func (s *mapStore) Save(_ context.Context, slot string, snap Snapshot) error {
	if s.fail != nil {
		return s.fail
	}
	s.slots[slot] = snap
	return nil
}

func (s *mapStore) Load(_ context.Context, slot string) (Snapshot, error) {
	s.loads++
	snap, ok := s.slots[slot]
	if !ok {
		return Snapshot{}, ErrSlotNotFound
	}
	return snap, nil
}

func (s *mapStore) Delete(_ context.Context, slot string) error {
	if _, ok := s.slots[slot]; !ok {
		return ErrSlotNotFound
	}
	delete(s.slots, slot)
	return nil
}

func (s *mapStore) List(context.Context) ([]string, error) {
	var out []string
	for k := range s.slots {
		out = append(out, k)
	}
	return out, nil
}

func counterClock() func() float64 {
	t := 0.0
	return func() float64 {
		t++
		return t
	}
}

func TestHistory(t *testing.T) {
	m := NewManager(newMapStore(), WithClock(counterClock()), WithMaxHistory(2))

	_, ok := m.Current()
	require.False(t, ok)
	_, ok = m.Undo()
	require.False(t, ok)

	a := m.Capture(CaptureInput{PlayerHealth: 100})
	require.False(t, m.CanUndo(), "first capture has nothing to push")
	b := m.Capture(CaptureInput{PlayerHealth: 90})
	m.Capture(CaptureInput{PlayerHealth: 80})
	require.Equal(t, 2, m.UndoDepth())
	require.NotEqual(t, a.ID, b.ID)

	d := m.Capture(CaptureInput{PlayerHealth: 70})
	require.Equal(t, 2, m.UndoDepth(), "full history rejects the push")

	got, ok := m.Undo()
	require.True(t, ok)
	require.Equal(t, b.ID, got.ID, "c was rejected when d was captured")
	require.True(t, m.CanRedo())

	got, ok = m.Undo()
	require.True(t, ok)
	require.Equal(t, a.ID, got.ID)
	_, ok = m.Undo()
	require.False(t, ok)

	got, ok = m.Redo()
	require.True(t, ok)
	require.Equal(t, b.ID, got.ID)
	got, ok = m.Redo()
	require.True(t, ok)
	require.Equal(t, d.ID, got.ID)
	_, ok = m.Redo()
	require.False(t, ok)

	m.Undo()
	m.Capture(CaptureInput{PlayerHealth: 60})
	require.False(t, m.CanRedo(), "capture clears redo")

	m.ClearHistory()
	m.ClearHistory()
	require.Zero(t, m.UndoDepth())
	require.Zero(t, m.RedoDepth())
}

func TestRedoKeepsEveryUndone(t *testing.T) {
	m := NewManager(newMapStore(), WithClock(counterClock()), WithMaxHistory(3))
	var ids []string
	for hp := 100; hp > 60; hp -= 10 {
		ids = append(ids, m.Capture(CaptureInput{PlayerHealth: hp}).ID)
	}
	for m.CanUndo() {
		m.Undo()
	}
	require.Equal(t, 3, m.RedoDepth())
	cur, _ := m.Current()
	require.Equal(t, ids[0], cur.ID)

	for i := 1; i < len(ids); i++ {
		got, ok := m.Redo()
		require.True(t, ok)
		require.Equal(t, ids[i], got.ID)
	}
	require.Equal(t, 3, m.UndoDepth())
	require.False(t, m.CanRedo())
}

func TestCaptureCopiesInput(t *testing.T) {
	m := NewManager(newMapStore())
	positions := []physics.Vec3{{X: 1}}
	s := m.Capture(CaptureInput{EnemyPositions: positions, EnemyHealth: []int{5}})
	positions[0].X = 99
	require.Equal(t, 1.0, s.EnemyPositions[0].X)
}

func TestSnapshotEqual(t *testing.T) {
	require.True(t, Snapshot{Timestamp: 1.000}.Equal(Snapshot{Timestamp: 1.005}))
	require.False(t, Snapshot{Timestamp: 1.0}.Equal(Snapshot{Timestamp: 1.02}))
}

func TestSlots(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	events := bus.New()
	captured := 0
	_, _ = events.Subscribe(bus.TypeSnapshotCapture, func(bus.Event) error { captured++; return nil })

	m := NewManager(store, WithClock(counterClock()), WithEvents(events))
	require.ErrorIs(t, m.Save(ctx, "quick"), ErrNoState)

	s := m.Capture(CaptureInput{PlayerPoints: 500, CurrentWave: 3})
	require.Equal(t, 1, captured)
	require.NoError(t, m.Save(ctx, "quick"))
	require.Equal(t, 1, m.Metrics().TotalSaves)
	require.Equal(t, CacheStats{Cached: 1, LoadFactor: 1.0 / 16}, m.CacheStats())

	m.Capture(CaptureInput{PlayerPoints: 10})
	got, err := m.Load(ctx, "quick")
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Zero(t, store.loads, "served from cache")
	require.Zero(t, m.Metrics().TotalLoads)

	fresh := NewManager(store)
	got, err = fresh.Load(ctx, "quick")
	require.NoError(t, err)
	require.Equal(t, 500, got.PlayerPoints)
	require.Equal(t, 1, fresh.Metrics().TotalLoads)
	cur, ok := fresh.Current()
	require.True(t, ok)
	require.Equal(t, s.ID, cur.ID)

	_, err = fresh.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrSlotNotFound)

	slots, err := m.Slots(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"quick"}, slots)

	require.NoError(t, m.Delete(ctx, "quick"))
	require.Zero(t, m.CacheStats().Cached)
	require.ErrorIs(t, m.Delete(ctx, "quick"), ErrSlotNotFound)

	require.ErrorIs(t, m.Save(ctx, "../etc"), ErrInvalidSlot)
	_, err = m.Load(ctx, "")
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestSaveFailure(t *testing.T) {
	store := newMapStore()
	store.fail = errors.New("disk full")
	m := NewManager(store)
	m.Capture(CaptureInput{})
	err := m.Save(context.Background(), "quick")
	require.ErrorIs(t, err, store.fail)
	require.Zero(t, m.CacheStats().Cached)
	require.Zero(t, m.Metrics().TotalSaves)
}
