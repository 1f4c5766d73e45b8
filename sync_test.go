package jsl_test

import (
	"context"
	"testing"
	"time"

	"github.com/ldn-softdev/jsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Invalidation via pub/sub ──────────────────────────────────────────────────

func TestSync_PutEvictsPeerL1(t *testing.T) {
	// Two stores sharing one SQLite file and one miniredis; a write on a
	// must drop b's L1 copy.
	st := newStack(t)
	ctx := context.Background()
	a := st.open(t, nil)
	b := st.open(t, nil)

	require.NoError(t, a.Put(ctx, "x1", "item", "original"))
	var pre string
	require.NoError(t, b.Get(ctx, "x1", &pre))
	require.Equal(t, "original", pre)

	require.NoError(t, a.Put(ctx, "x1", "item", "updated"))

	assert.Eventually(t, func() bool {
		var post string
		return b.Get(ctx, "x1", &post) == nil && post == "updated"
	}, 2*time.Second, 10*time.Millisecond, "stale L1 read after invalidation")
}

func TestSync_DeleteEvictsPeerL1(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	a := st.open(t, nil)
	b := st.open(t, nil)

	require.NoError(t, a.Put(ctx, "x1", "item", 1))
	require.NoError(t, b.Get(ctx, "x1", new(int)))
	require.NoError(t, a.Delete(ctx, "x1"))

	assert.Eventually(t, func() bool {
		return b.Stats().L1Entries == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, b.Get(ctx, "x1", new(int)), jsl.ErrNotFound)
}

func TestSync_InvalidateAllCrossStore(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	a := st.open(t, nil)
	b := st.open(t, nil)

	require.NoError(t, b.PutMany(ctx, "item", map[string]any{"a": 1, "b": 2}))
	require.Equal(t, int64(2), b.Stats().L1Entries)

	require.NoError(t, a.InvalidateAll(ctx))
	assert.Eventually(t, func() bool {
		return b.Stats().L1Entries == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSync_InvalidateKindCrossStore(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	a := st.open(t, nil)
	b := st.open(t, nil)

	require.NoError(t, b.Put(ctx, "n", "note", "keep"))
	require.NoError(t, b.PutMany(ctx, "item", map[string]any{"a": 1, "b": 2}))
	require.Equal(t, int64(3), b.Stats().L1Entries)

	require.NoError(t, a.InvalidateKind(ctx, "item"))
	assert.Eventually(t, func() bool {
		return b.Stats().L1Entries == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSync_OwnMessagesIgnored(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	s := st.open(t, nil)

	require.NoError(t, s.Put(ctx, "x1", "item", 1))
	// Give our own invalidation time to come back.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), s.Stats().L1Entries)
}

func TestSync_SharedNodeIDIsIgnored(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	same := func(c *jsl.Config) { c.NodeID = "node-1" }
	a := st.open(t, same)
	b := st.open(t, same)

	require.NoError(t, b.Put(ctx, "x1", "item", 1))
	require.NoError(t, a.Invalidate(ctx, "x1"))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), b.Stats().L1Entries)
}

func TestSync_ChannelIsolation(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	a := st.open(t, func(c *jsl.Config) { c.InvalidationChannel = "team-a" })
	b := st.open(t, func(c *jsl.Config) { c.InvalidationChannel = "team-b" })

	require.NoError(t, b.Put(ctx, "x1", "item", 1))
	require.NoError(t, a.InvalidateAll(ctx))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), b.Stats().L1Entries)
}

// ── Write-behind ──────────────────────────────────────────────────────────────

func TestSync_WriteBehindThresholdFlush(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	s := st.open(t, func(c *jsl.Config) {
		c.WriteMode = jsl.WriteBehind
		c.WriteBehindFlushInterval = time.Hour
		c.WriteBehindFlushThreshold = 3
	})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, id, "item", id))
	}
	assert.Eventually(t, func() bool {
		n, err := s.Count(ctx, jsl.Q().Build())
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, s.Stats().DirtyCount)
}

func TestSync_WriteBehindTicker(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	s := st.open(t, func(c *jsl.Config) {
		c.WriteMode = jsl.WriteBehind
		c.WriteBehindFlushInterval = 20 * time.Millisecond
	})

	require.NoError(t, s.Put(ctx, "a", "item", 1))
	assert.Eventually(t, func() bool {
		ok, err := s.Count(ctx, jsl.Q().Build())
		return err == nil && ok == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSync_FlushDirty_ConcurrentCalls(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	s := st.open(t, func(c *jsl.Config) {
		c.WriteMode = jsl.WriteBehind
		c.WriteBehindFlushInterval = time.Hour
	})
	for i := range 20 {
		require.NoError(t, s.Put(ctx, string(rune('a'+i)), "item", i))
	}

	done := make(chan error, 4)
	for range 4 {
		go func() { done <- s.FlushDirty(ctx) }()
	}
	for range 4 {
		require.NoError(t, <-done)
	}
	n, err := s.Count(ctx, jsl.Q().Build())
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
}
