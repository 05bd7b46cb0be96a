package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testObserver struct {
	mu             sync.Mutex
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.mu.Lock()
	o.publishCount++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.mu.Lock()
	o.deliveredCount += handlers
	o.lastErr = err
	o.mu.Unlock()
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe(TypeIndicesRebuilt, func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent(TypeIndicesRebuilt, "director", 12)))
	require.NoError(t, b.Publish(NewEvent(TypeWaveChanged, "wave", 2)))
	require.Equal(t, []any{12}, got)

	_, err = b.Subscribe("x", nil)
	require.Error(t, err)
}

func TestDeliveryOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := b.Subscribe("ev", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("ev", func(e Event) error { count++; return nil })
	require.NoError(t, err)
	require.True(t, sub.IsActive())
	require.NotEmpty(t, sub.ID())
	require.Equal(t, "ev", sub.EventType())

	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Unsubscribe(nil))
	require.False(t, sub.IsActive())
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	require.Equal(t, 1, count)
}

func TestObserverAndStats(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)

	e1, e2 := errors.New("e1"), errors.New("e2")
	_, _ = b.Subscribe("ev", func(Event) error { return e1 })
	_, _ = b.Subscribe("ev", func(Event) error { return e2 })
	_, _ = b.Subscribe("ok", func(Event) error { return nil })

	err := b.Publish(NewEvent("ev", "src", nil))
	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)
	require.NoError(t, b.Publish(NewEvent("ok", "src", nil)))

	require.Equal(t, 2, obs.publishCount)
	require.Equal(t, 3, obs.deliveredCount)
	require.NoError(t, obs.lastErr)

	stats := b.Stats()
	require.Equal(t, uint64(2), stats.Published)
	require.Equal(t, uint64(3), stats.DeliveredHandlers)
	require.Equal(t, uint64(1), stats.Errors)
	require.Equal(t, uint64(3), stats.SubscribersActive)

	b.RemoveObserver(obs)
	require.NoError(t, b.Publish(NewEvent("ok", "src", nil)))
	require.Equal(t, 2, obs.publishCount)
}

func TestConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	total := 0
	_, _ = b.Subscribe("ev", func(Event) error {
		mu.Lock()
		total++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Publish(NewEvent("ev", "src", j))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, total)
}
