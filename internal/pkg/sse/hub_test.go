package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndPublish(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	assert.Equal(t, 1, hub.SubscriberCount("user-1"))

	hub.Publish("user-1", Event{Event: "attendance.created", Data: "payload"})

	select {
	case event := <-ch:
		assert.Equal(t, "attendance.created", event.Event)
		assert.Equal(t, "payload", event.Data)
	default:
		t.Fatal("expected event on subscriber channel")
	}
}

func TestPublishToOtherUserNotDelivered(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	hub.Publish("user-2", Event{Event: "attendance.created"})

	select {
	case <-ch:
		t.Fatal("event should not reach a different user's subscriber")
	default:
	}
}

func TestPublishToMany(t *testing.T) {
	hub := NewHub()

	ch1, cleanup1 := hub.Subscribe("user-1")
	defer cleanup1()
	ch2, cleanup2 := hub.Subscribe("user-2")
	defer cleanup2()
	ch3, cleanup3 := hub.Subscribe("user-3")
	defer cleanup3()

	hub.PublishToMany([]string{"user-1", "user-2"}, Event{Event: "attendance.created"})

	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, "attendance.created", event.Event)
		default:
			t.Fatal("event should reach every listed user")
		}
	}
	select {
	case <-ch3:
		t.Fatal("event should not reach an unlisted user")
	default:
	}
}

func TestCleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	_, cleanup := hub.Subscribe("user-1")
	require.Equal(t, 1, hub.TotalSubscribers())

	cleanup()
	assert.Equal(t, 0, hub.TotalSubscribers())
	assert.Equal(t, 0, hub.SubscriberCount("user-1"))
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	hub := NewHub()

	_, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	// Channel buffer is 10; publishing more must not block.
	for i := 0; i < 25; i++ {
		hub.Publish("user-1", Event{Event: "attendance.created"})
	}
}
