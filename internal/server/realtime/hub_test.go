package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
)

func TestHub_PublishReachesEveryStreamOfUser(t *testing.T) {
	h := NewHub(logging.Nop())
	a1 := h.Subscribe(1)
	a2 := h.Subscribe(1)
	b := h.Subscribe(2)
	defer a1.Close()
	defer a2.Close()
	defer b.Close()

	n := h.Publish(context.Background(), 1, Event{Type: EventFriendRequestReceived, Payload: map[string]any{"id": 7}})
	assert.Equal(t, 2, n)

	for _, s := range []*Subscription{a1, a2} {
		ev := <-s.Events()
		assert.Equal(t, EventFriendRequestReceived, ev.Type)
		assert.Equal(t, 7, ev.Payload["id"])
	}
	assert.Empty(t, b.Events())
}

func TestHub_CloseLeavesGroup(t *testing.T) {
	h := NewHub(logging.Nop())
	s := h.Subscribe(1)
	require.Equal(t, 1, h.Connections(1))

	s.Close()
	s.Close()

	assert.Equal(t, 0, h.Connections(1))
	_, open := <-s.Events()
	assert.False(t, open)
	assert.Equal(t, 0, h.Publish(context.Background(), 1, Event{Type: "x"}))
}

func TestHub_FullBufferDrops(t *testing.T) {
	h := NewHub(logging.Nop())
	h.buffer = 1
	s := h.Subscribe(1)
	defer s.Close()

	assert.Equal(t, 1, h.Publish(context.Background(), 1, Event{Type: "first"}))
	assert.Equal(t, 0, h.Publish(context.Background(), 1, Event{Type: "second"}))
	assert.Equal(t, "first", (<-s.Events()).Type)
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	h := NewHub(logging.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := h.Subscribe(1)
			s.Close()
		}()
		go func() {
			defer wg.Done()
			h.Publish(context.Background(), 1, Event{Type: "tick"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Connections(1))
}
