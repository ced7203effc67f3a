package bridge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChannelTest(t *testing.T) *Channel {
	t.Helper()
	ch, err := OpenChannel(filepath.Join(t.TempDir(), "channels.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestChannelPostUnreadRead(t *testing.T) {
	ctx := context.Background()
	ch := setupChannelTest(t)

	m1, err := ch.Post(ctx, "ops", "zealot-1", "deploy finished")
	require.NoError(t, err)
	require.NotEmpty(t, m1.ID)

	m2, err := ch.Post(ctx, "ops", "zealot-2", "ack")
	require.NoError(t, err)

	_, err = ch.Post(ctx, "random", "zealot-1", "off topic")
	require.NoError(t, err)

	unread, err := ch.Unread(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, m1.ID, unread[0].ID, "oldest first")
	assert.Equal(t, m2.ID, unread[1].ID)

	require.NoError(t, ch.MarkRead(ctx, m1.ID))

	unread, err = ch.Unread(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, m2.ID, unread[0].ID)

	// Marking read is idempotent and tolerates unknown ids.
	require.NoError(t, ch.MarkRead(ctx, m1.ID, "missing"))
}

func TestChannelUnreadInsertOrder(t *testing.T) {
	ctx := context.Background()
	ch := setupChannelTest(t)

	// A burst of posts lands within the same millisecond; the id
	// tie-break must still return them oldest first.
	var ids []string
	for i := 0; i < 50; i++ {
		m, err := ch.Post(ctx, "ops", "zealot-1", "burst")
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	unread, err := ch.Unread(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, unread, len(ids))
	for i, m := range unread {
		assert.Equal(t, ids[i], m.ID, "position %d", i)
	}

	last, err := ch.Latest(ctx, "ops")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, ids[len(ids)-1], last.ID)
}

func TestChannelLatest(t *testing.T) {
	ctx := context.Background()
	ch := setupChannelTest(t)

	msg, err := ch.Latest(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, msg, "empty channel resolves to nil, not an error")

	ch.Post(ctx, "ops", "zealot-1", "first")
	last, err := ch.Post(ctx, "ops", "zealot-1", "second")
	require.NoError(t, err)

	msg, err = ch.Latest(ctx, "ops")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, last.ID, msg.ID)
}

func TestAuditAppendTail(t *testing.T) {
	ctx := context.Background()
	a, err := OpenAudit(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Append(ctx, "zealot-1", "add", "entry=x topic=boot"))
	require.NoError(t, a.Append(ctx, "zealot-1", "archive", "entry=x"))
	require.NoError(t, a.Append(ctx, "zealot-2", "spawn", "spawn=3"))

	events, err := a.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "spawn", events[0].Action, "newest first")
	assert.Equal(t, "archive", events[1].Action)

	all, err := a.Tail(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
