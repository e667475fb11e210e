package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestEventBus_SubscribeAndPublish(t *testing.T) {
	bus := NewEventBus(10)
	ch1 := bus.Subscribe(EventTypeEmotionDetected)
	ch2 := bus.Subscribe(EventTypeEmotionDetected)
	other := bus.Subscribe(EventTypeCameraOpened)

	bus.Publish(Event{Type: EventTypeEmotionDetected, Source: "streamer", Data: map[string]interface{}{"label": "happy"}})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := receive(t, ch)
		assert.Equal(t, "happy", ev.Data["label"])
		assert.False(t, ev.Timestamp.IsZero(), "timestamp is stamped on publish")
	}
	assert.Len(t, other, 0)
}

func TestEventBus_SubscribeAll_SeesTypesPublishedLater(t *testing.T) {
	bus := NewEventBus(10)
	all := bus.SubscribeAll()

	bus.Publish(Event{Type: EventTypeStreamStarted})
	bus.Publish(Event{Type: EventTypeEmotionDetected})

	assert.Equal(t, EventTypeStreamStarted, receive(t, all).Type)
	assert.Equal(t, EventTypeEmotionDetected, receive(t, all).Type)
}

func TestEventBus_PublishNeverBlocks(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe(EventTypeEmotionDetected)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(Event{Type: EventTypeEmotionDetected, Data: map[string]interface{}{"seq": i}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, 0, receive(t, ch).Data["seq"])
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventTypeCameraClosed)
	all := bus.SubscribeAll()

	bus.Unsubscribe(ch)
	bus.Unsubscribe(all)
	bus.Unsubscribe(all)

	_, ok := <-ch
	assert.False(t, ok)
	_, ok = <-all
	assert.False(t, ok)

	bus.Publish(Event{Type: EventTypeCameraClosed})
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventTypeCameraOpened)
	all := bus.SubscribeAll()

	bus.Close()
	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)
	_, ok = <-all
	assert.False(t, ok)

	bus.Publish(Event{Type: EventTypeCameraOpened})

	late := bus.Subscribe(EventTypeCameraOpened)
	_, ok = <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

func TestEventBus_SubscribeWithHandler(t *testing.T) {
	bus := NewEventBus(10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var labels []interface{}
	errs := make(chan error, 1)

	bus.SubscribeWithHandler(ctx, EventTypeEmotionDetected, func(ctx context.Context, ev Event) error {
		mu.Lock()
		labels = append(labels, ev.Data["label"])
		mu.Unlock()
		if ev.Data["label"] == "angry" {
			return errors.New("rejected")
		}
		return nil
	}, func(err error) { errs <- err })

	bus.Publish(Event{Type: EventTypeEmotionDetected, Data: map[string]interface{}{"label": "happy"}})
	bus.Publish(Event{Type: EventTypeEmotionDetected, Data: map[string]interface{}{"label": "angry"}})

	select {
	case err := <-errs:
		assert.EqualError(t, err, "rejected")
	case <-time.After(time.Second):
		t.Fatal("handler error not reported")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []interface{}{"happy", "angry"}, labels)
}
