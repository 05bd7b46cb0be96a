package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/director/internal/core/events/bus"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/registry"
	"github.com/zeusync/director/pkg/sequence"
)

const DefaultMaxHistory = 50

var (
	ErrSlotNotFound = errors.New("state: slot not found")
	ErrNoState      = errors.New("state: nothing captured")
	ErrInvalidSlot  = errors.New("state: invalid slot name")
)

// Store persists snapshots by slot name. Load returns an error wrapping
// ErrSlotNotFound for unknown slots.
type Store interface {
	Save(ctx context.Context, slot string, s Snapshot) error
	Load(ctx context.Context, slot string) (Snapshot, error)
	Delete(ctx context.Context, slot string) error
	List(ctx context.Context) ([]string, error)
}

// Metrics are running totals of slot I/O. Cache hits are not counted as loads.
type Metrics struct {
	TotalSaves  int           `json:"total_saves"`
	TotalLoads  int           `json:"total_loads"`
	AverageSave time.Duration `json:"average_save"`
	AverageLoad time.Duration `json:"average_load"`
}

type CacheStats struct {
	Cached     int     `json:"cached"`
	LoadFactor float64 `json:"load_factor"`
}

type Option func(*Manager)

// WithMaxHistory bounds the undo stack. The redo stack is unbounded.
func WithMaxHistory(n int) Option {
	return func(m *Manager) { m.maxHistory = n }
}

// WithClock replaces the timestamp source, in seconds.
func WithClock(clock func() float64) Option {
	return func(m *Manager) { m.clock = clock }
}

func WithEvents(events bus.EventBus) Option {
	return func(m *Manager) { m.events = events }
}

func WithLogger(logger log.Log) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager keeps the current snapshot with bounded undo and redo history, and
// saves snapshots to named slots through a Store. Pushes onto a full history
// are dropped. Manager is not safe for concurrent use.
type Manager struct {
	store      Store
	events     bus.EventBus
	logger     log.Log
	clock      func() float64
	maxHistory int

	undo    *sequence.Stack[Snapshot]
	redo    *sequence.Stack[Snapshot]
	current Snapshot
	has     bool
	cache   *registry.Table[string, Snapshot]
	metrics Metrics
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		maxHistory: DefaultMaxHistory,
		clock:      func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.NewNop()
	}
	m.logger = m.logger.Named("state")
	m.undo = sequence.NewStack[Snapshot](m.maxHistory)
	m.redo = sequence.NewStack[Snapshot](0)
	m.cache = registry.New[string, Snapshot](registry.StringHasher())
	return m
}

// Capture records in as the current snapshot. The previous one, if
// any, moves onto the undo stack and the redo stack is cleared.
func (m *Manager) Capture(in CaptureInput) Snapshot {
	if m.has && !m.undo.Push(m.current) {
		m.logger.Debug("undo history full, dropping snapshot", log.String("id", m.current.ID))
	}
	m.current = in.snapshot(uuid.NewString(), m.clock())
	m.has = true
	m.redo.Clear()

	if m.events != nil {
		if err := m.events.Publish(bus.NewEvent(bus.TypeSnapshotCapture, "state", m.current)); err != nil {
			m.logger.Warn("capture event handler failed", log.Error(err))
		}
	}
	return m.current
}

// Current returns the current snapshot. False before the first capture or
// load.
func (m *Manager) Current() (Snapshot, bool) {
	return m.current, m.has
}

// Undo restores the previous snapshot and moves the current one to redo.
func (m *Manager) Undo() (Snapshot, bool) {
	prev, ok := m.undo.Pop()
	if !ok {
		return Snapshot{}, false
	}
	if !m.redo.Push(m.current) {
		m.logger.Debug("redo history full, dropping snapshot", log.String("id", m.current.ID))
	}
	m.current = prev
	return m.current, true
}

// Redo reapplies the most recently undone snapshot.
func (m *Manager) Redo() (Snapshot, bool) {
	next, ok := m.redo.Pop()
	if !ok {
		return Snapshot{}, false
	}
	if !m.undo.Push(m.current) {
		m.logger.Debug("undo history full, dropping snapshot", log.String("id", m.current.ID))
	}
	m.current = next
	return m.current, true
}

func (m *Manager) CanUndo() bool  { return !m.undo.IsEmpty() }
func (m *Manager) CanRedo() bool  { return !m.redo.IsEmpty() }
func (m *Manager) UndoDepth() int { return m.undo.Len() }
func (m *Manager) RedoDepth() int { return m.redo.Len() }

func (m *Manager) ClearHistory() {
	m.undo.Clear()
	m.redo.Clear()
}

// Save writes the current snapshot to slot and caches it.
func (m *Manager) Save(ctx context.Context, slot string) error {
	if !m.has {
		return ErrNoState
	}
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	start := time.Now()
	if err := m.store.Save(ctx, slot, m.current); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	took := time.Since(start)

	m.cache.Insert(slot, m.current)
	m.metrics.AverageSave = runningAverage(m.metrics.AverageSave, m.metrics.TotalSaves, took)
	m.metrics.TotalSaves++
	m.logger.Info("state saved", log.String("slot", slot), log.Duration("took", took))
	return nil
}

// Load makes the snapshot in slot current, reading the cache before the
// store.
func (m *Manager) Load(ctx context.Context, slot string) (Snapshot, error) {
	if err := ValidateSlot(slot); err != nil {
		return Snapshot{}, err
	}
	if s, ok := m.cache.Find(slot); ok {
		m.current, m.has = s, true
		m.logger.Debug("state loaded from cache", log.String("slot", slot))
		return s, nil
	}

	start := time.Now()
	s, err := m.store.Load(ctx, slot)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load slot %s: %w", slot, err)
	}
	took := time.Since(start)

	m.current, m.has = s, true
	m.cache.Insert(slot, s)
	m.metrics.AverageLoad = runningAverage(m.metrics.AverageLoad, m.metrics.TotalLoads, took)
	m.metrics.TotalLoads++
	m.logger.Info("state loaded", log.String("slot", slot), log.Duration("took", took))
	return s, nil
}

// Delete removes slot from the store and the cache.
func (m *Manager) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, slot); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	m.cache.Remove(slot)
	return nil
}

// Slots lists every known slot, stored or cached, sorted by name.
func (m *Manager) Slots(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	all := append(stored, m.cache.Keys()...)
	slices.Sort(all)
	return slices.Compact(all), nil
}

func (m *Manager) Metrics() Metrics { return m.metrics }

func (m *Manager) CacheStats() CacheStats {
	return CacheStats{Cached: m.cache.Len(), LoadFactor: m.cache.LoadFactor()}
}

// ValidateSlot rejects names that are empty or could escape a storage root.
func ValidateSlot(slot string) error {
	if slot == "" || slot == "." || slot == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	for _, r := range slot {
		if r == '/' || r == '\\' || r == 0 {
			return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
		}
	}
	return nil
}

func runningAverage(avg time.Duration, n int, sample time.Duration) time.Duration {
	return (avg*time.Duration(n) + sample) / time.Duration(n+1)
}
