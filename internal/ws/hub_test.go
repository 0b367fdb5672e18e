package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-cake-store/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func TestHubRoutesEventsToOwnerOnly(t *testing.T) {
	h := startHub(t)

	mine := &fakeConn{}
	other := &fakeConn{}
	require.True(t, h.Join(&Client{Conn: mine, TenantID: 1, UserID: 7}))
	require.True(t, h.Join(&Client{Conn: other, TenantID: 2, UserID: 7}))

	h.NotifyCart(1, 7, model.CartEvent{Type: "cart_updated", Action: "item_added", LineID: 3, Quantity: 2})

	require.Eventually(t, func() bool { return mine.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, other.count())

	var event model.CartEvent
	require.NoError(t, json.Unmarshal(mine.messages[0], &event))
	assert.Equal(t, "item_added", event.Action)
	assert.Equal(t, uint(3), event.LineID)
}

func TestHubDropsClientOnWriteFailure(t *testing.T) {
	h := startHub(t)

	broken := &fakeConn{failing: true}
	require.True(t, h.Join(&Client{Conn: broken, TenantID: 1, UserID: 7}))
	require.Eventually(t, func() bool { return h.Connections(1, 7) == 1 }, time.Second, 10*time.Millisecond)

	h.NotifyCart(1, 7, model.CartEvent{Type: "cart_updated", Action: "cart_cleared"})

	require.Eventually(t, func() bool { return h.Connections(1, 7) == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, broken.closed)
}

func TestHubNotifyNeverBlocks(t *testing.T) {
	// Run is not started, so nothing drains the outbox.
	h := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.outbox)+10; i++ {
			h.NotifyCart(1, 7, model.CartEvent{Type: "cart_updated"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyCart blocked on a full outbox")
	}
}

func TestHubJoinAndLeaveReturnAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	conn := &fakeConn{}
	client := &Client{Conn: conn, TenantID: 1, UserID: 7}
	require.True(t, h.Join(client))
	cancel()
	<-stopped

	left := make(chan struct{})
	go func() {
		h.Leave(client)
		assert.False(t, h.Join(client))
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("Leave blocked on a stopped hub")
	}
	assert.True(t, conn.closed)
}
