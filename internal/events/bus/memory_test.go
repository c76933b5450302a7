package bus

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/dbchat/internal/common/logger"
)

type collector struct {
	mu     sync.Mutex
	events []*Event
}

func (c *collector) handle(_ context.Context, e *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestBus(t *testing.T) *MemoryEventBus {
	t.Helper()
	b := NewMemoryEventBus(logger.Nop())
	t.Cleanup(b.Close)
	return b
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	b := newTestBus(t)
	c := &collector{}

	_, err := b.Subscribe("chat.inbound", c.handle)
	require.NoError(t, err)

	ev := NewEvent("chat.message.received", "test", map[string]any{"user_id": "u1", "text": "hi"})
	require.NoError(t, b.Publish(context.Background(), "chat.inbound", ev))
	require.NoError(t, b.Publish(context.Background(), "chat.other", NewEvent("x", "test", nil)))

	require.Eventually(t, func() bool { return c.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "u1", c.events[0].String("user_id"))
	assert.Equal(t, "hi", c.events[0].String("text"))
	assert.NotEmpty(t, c.events[0].ID)
}

func TestMemoryEventBus_PreservesOrder(t *testing.T) {
	b := newTestBus(t)
	c := &collector{}
	_, err := b.Subscribe("chat.inbound", c.handle)
	require.NoError(t, err)

	var want []string
	for i := range 100 {
		typ := string(rune('a' + i%26))
		want = append(want, typ)
		require.NoError(t, b.Publish(context.Background(), "chat.inbound", NewEvent(typ, "test", nil)))
	}

	require.Eventually(t, func() bool { return c.len() == 100 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, c.types())
}

func TestMemoryEventBus_Wildcards(t *testing.T) {
	b := newTestBus(t)
	all := &collector{}
	single := &collector{}

	_, err := b.Subscribe("chat.reply.>", all.handle)
	require.NoError(t, err)
	_, err = b.Subscribe("chat.*.u1", single.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, "chat.reply.u1", NewEvent("a", "test", nil)))
	require.NoError(t, b.Publish(ctx, "chat.reply.u2", NewEvent("b", "test", nil)))
	require.NoError(t, b.Publish(ctx, "chat.reply", NewEvent("c", "test", nil)))

	require.Eventually(t, func() bool { return all.len() == 2 && single.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, all.types())
	assert.Equal(t, []string{"a"}, single.types())
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	b := newTestBus(t)
	c := &collector{}
	sub, err := b.Subscribe("s", c.handle)
	require.NoError(t, err)
	assert.True(t, sub.IsValid())

	require.NoError(t, sub.Unsubscribe())
	assert.False(t, sub.IsValid())

	require.NoError(t, b.Publish(context.Background(), "s", NewEvent("a", "test", nil)))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, c.len())
}

func TestMemoryEventBus_Close(t *testing.T) {
	b := NewMemoryEventBus(logger.Nop())
	assert.True(t, b.IsConnected())
	b.Close()
	b.Close()

	assert.False(t, b.IsConnected())
	assert.ErrorIs(t, b.Publish(context.Background(), "s", NewEvent("a", "test", nil)), ErrClosed)
	_, err := b.Subscribe("s", (&collector{}).handle)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubjectMatches(t *testing.T) {
	cases := []struct {
		pattern, subject string
		want             bool
	}{
		{"chat.inbound", "chat.inbound", true},
		{"chat.inbound", "chat.inbound.x", false},
		{"workflow.*", "workflow.completed", true},
		{"workflow.*", "workflow.completed.extra", false},
		{"workflow.*", "workflow", false},
		{"chat.reply.>", "chat.reply.42", true},
		{"chat.reply.>", "chat.reply.a.b", true},
		{"chat.reply.>", "chat.reply", false},
		{"chat.*.42", "chat.reply.42", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, subjectMatches(strings.Split(c.pattern, "."), c.subject), "%s vs %s", c.pattern, c.subject)
	}
}
