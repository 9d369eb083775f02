package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("component.added", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("component.added", "node-1", 123)))
	require.NoError(t, b.Publish(NewEvent("component.removed", "node-1", 456)))

	assert.Equal(t, []any{123}, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, err := b.Subscribe("e", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("e", "", nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestCancelDuringDeliveryKeepsSnapshot(t *testing.T) {
	b := New()
	var calls []string
	var second Subscription
	_, err := b.Subscribe("e", func(Event) error {
		calls = append(calls, "first")
		return second.Cancel()
	})
	require.NoError(t, err)
	second, err = b.Subscribe("e", func(Event) error {
		calls = append(calls, "second")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("e", "", nil)))
	// second was cancelled before its turn; inactive subscriptions are skipped
	assert.Equal(t, []string{"first"}, calls)
	assert.False(t, second.IsActive())

	require.NoError(t, b.Publish(NewEvent("e", "", nil)))
	assert.Equal(t, []string{"first", "first"}, calls)
}

func TestSubscribeDuringDeliveryTakesEffectNextPublish(t *testing.T) {
	b := New()
	count := 0
	_, err := b.Subscribe("e", func(Event) error {
		_, _ = b.Subscribe("e", func(Event) error {
			count++
			return nil
		})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("e", "", nil)))
	assert.Equal(t, 0, count)
	require.NoError(t, b.Publish(NewEvent("e", "", nil)))
	assert.Equal(t, 1, count)
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("e", func(Event) error { return errA })
	_, _ = b.Subscribe("e", func(Event) error { return errB })

	err := b.Publish(NewEvent("e", "", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestNilHandlerRejected(t *testing.T) {
	_, err := New().Subscribe("e", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestFiltersDropEvents(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	count := 0
	_, _ = b.Subscribe("e", func(Event) error { count++; return nil })

	reject := func(Event) bool { return false }
	require.NoError(t, b.PublishWithFilters(NewEvent("e", "", nil), reject))
	assert.Equal(t, 0, count)
	assert.EqualValues(t, 1, b.GetMetrics().DroppedByFilters)
}

func TestMetricsCountedWithoutObservers(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_, _ = b.Subscribe("e", func(e Event) error { return errors.New("boom") })
	assert.False(t, b.HasSubscribers("other"))
	assert.True(t, b.HasSubscribers("e"))

	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	assert.EqualValues(t, 1, m.Published)
	assert.EqualValues(t, 2, m.DeliveredHandlers)
	assert.EqualValues(t, 1, m.Errors)
	assert.EqualValues(t, 2, m.SubscribersActive)

	reject := func(Event) bool { return false }
	require.NoError(t, b.PublishWithFilters(NewEvent("e", "", nil), reject))
	assert.EqualValues(t, 1, b.GetMetrics().DroppedByFilters)
}

func TestObserverSeesDeliveries(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.EqualValues(t, 1, b.GetMetrics().Published)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Equal(t, 1, obs.publishCount)
	assert.EqualValues(t, 2, b.GetMetrics().Published)
}

func TestCancelFromAnotherGoroutine(t *testing.T) {
	b := New()
	sub, err := b.Subscribe("e", func(Event) error { return nil })
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			_ = b.Publish(NewEvent("e", "", nil))
		}
	}()
	go func() {
		defer wg.Done()
		_ = sub.Cancel()
	}()
	wg.Wait()

	assert.False(t, sub.IsActive())
	assert.False(t, b.HasSubscribers("e"))
	_ = sub.Cancel()
}
