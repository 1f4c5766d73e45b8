package jsl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ldn-softdev/jsl/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── noopLogger ───────────────────────────────────────────────────────────────

func TestNoopLogger_AllMethods(t *testing.T) {
	l := noopLogger{}
	l.Info("info message", "key", "val")
	l.Warn("warn message", "key", 1)
	l.Error("error message", "err", errors.New("oops"))
	l.Debug("debug message", "k1", "v1", "k2", 2)
}

func memStore(t *testing.T, edit func(*Config)) *Store {
	t.Helper()
	var cfg Config
	if edit != nil {
		edit(&cfg)
	}
	s, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ── invalidation messages ────────────────────────────────────────────────────

func TestInvalidation_RoundTrip(t *testing.T) {
	in := &invalidation{Node: "n1", Op: opEvict, Kind: "k", IDs: []string{"a", "b"}}
	b := New()
	require.NoError(t, b.Append(in))

	var out invalidation
	require.NoError(t, FromBytes(b.Bytes()).Restore(&out))
	assert.Equal(t, *in, out)
}

func TestHandleInvalidation(t *testing.T) {
	s := memStore(t, func(c *Config) { c.NodeID = "me" })
	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		kind := "x"
		if id == "c" {
			kind = "y"
		}
		s.l1.Set(record.New(id, kind, "jsl", nil, now), time.Minute)
	}
	send := func(m invalidation) {
		b := New()
		require.NoError(t, b.Append(&m))
		s.sync.handleInvalidation(string(b.Bytes()))
	}

	// Malformed payloads and our own messages are ignored.
	s.sync.handleInvalidation("\x07garbage")
	send(invalidation{Node: "me", Op: opFlush})
	send(invalidation{Node: "peer", Op: 99})
	assert.Equal(t, int64(3), s.l1.Stats().Entries)

	send(invalidation{Node: "peer", Op: opEvict, IDs: []string{"a"}})
	_, ok := s.l1.Get("a")
	assert.False(t, ok)

	send(invalidation{Node: "peer", Op: opEvictKind, Kind: "x"})
	_, ok = s.l1.Get("b")
	assert.False(t, ok)
	_, ok = s.l1.Get("c")
	assert.True(t, ok)

	send(invalidation{Node: "peer", Op: opFlush})
	assert.Zero(t, s.l1.Stats().Entries)
}

// ── codecs ───────────────────────────────────────────────────────────────────

func TestDecode_UnknownCodec(t *testing.T) {
	s := memStore(t, nil)
	row := record.New("r", "k", "yaml", []byte("a: 1"), time.Now())
	var v map[string]int
	assert.ErrorIs(t, s.decode(row, []any{&v}), ErrUnknownCodec)
}

func TestDecode_ValueCount(t *testing.T) {
	s := memStore(t, nil)
	row := record.New("r", "k", "json", []byte("1"), time.Now())
	var a, b int
	assert.ErrorIs(t, s.decode(row, []any{&a, &b}), ErrValueCount)
	require.NoError(t, s.decode(row, []any{&a}))
	assert.Equal(t, 1, a)
}

// ── seal / open ──────────────────────────────────────────────────────────────

func TestSealOpen(t *testing.T) {
	key := make([]byte, 32)
	s := memStore(t, func(c *Config) { c.EncryptionKey = key })

	row := record.New("r", "k", "jsl", []byte("payload"), time.Now())
	sealed, err := s.seal(row.Clone())
	require.NoError(t, err)
	assert.Equal(t, "jsl"+sealedSuffix, sealed.Codec)
	assert.Equal(t, row.Digest, sealed.Digest)

	opened, err := s.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, row.Data, opened.Data)
	assert.Equal(t, "jsl", opened.Codec)
	assert.Equal(t, "jsl"+sealedSuffix, sealed.Codec, "open works on a copy")

	plain := memStore(t, nil)
	_, err = plain.open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestOpen_DigestMismatch(t *testing.T) {
	s := memStore(t, nil)
	row := record.New("r", "k", "jsl", []byte("payload"), time.Now())
	row.Data[0] = 'P'
	_, err := s.open(row)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

// ── write-behind queue ───────────────────────────────────────────────────────

func TestPendingIsACopy(t *testing.T) {
	s := memStore(t, nil)
	row := record.New("r", "k", "jsl", []byte{1, 2, 3}, time.Now())
	s.sync.queueDirty(row)
	row.Data[0] = 9

	got := s.sync.pending("r")
	require.NotNil(t, got)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	got.Data[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, s.sync.pending("r").Data)

	s.sync.dropDirty("r")
	assert.Nil(t, s.sync.pending("r"))
	assert.Zero(t, s.sync.dirtyCount.Load())
}

func TestFlushDirty_NoRelationalTier(t *testing.T) {
	s := memStore(t, nil)
	s.sync.queueDirty(record.New("r", "k", "jsl", nil, time.Now()))
	require.NoError(t, s.FlushDirty(context.Background()))
	assert.NotNil(t, s.sync.pending("r"), "nothing to flush into")
}

// ── write-behind vs delete ──────────────────────────────────────────────────

// gatedBackend is an in-memory relational tier whose batch upsert signals
// entered and then waits for gate to close.
type gatedBackend struct {
	mu      sync.Mutex
	rows    map[string]*record.Row
	entered chan struct{}
	gate    chan struct{}
	fail    error
}

func newGatedBackend(fail error) *gatedBackend {
	return &gatedBackend{
		rows:    make(map[string]*record.Row),
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
		fail:    fail,
	}
}

func (g *gatedBackend) Name() string                   { return "gated" }
func (g *gatedBackend) Ping(ctx context.Context) error { return nil }
func (g *gatedBackend) Builtin() []record.Step         { return nil }
func (g *gatedBackend) Close()                         {}

func (g *gatedBackend) Upsert(ctx context.Context, row *record.Row) error {
	return g.UpsertMany(ctx, []*record.Row{row})
}

func (g *gatedBackend) UpsertMany(ctx context.Context, rows []*record.Row) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.gate
	if g.fail != nil {
		return g.fail
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range rows {
		g.rows[r.ID] = r.Clone()
	}
	return nil
}

func (g *gatedBackend) Get(ctx context.Context, id string) (*record.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rows[id]; ok {
		return r.Clone(), nil
	}
	return nil, record.ErrNotFound
}

func (g *gatedBackend) Delete(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rows[id]
	delete(g.rows, id)
	return ok, nil
}

func (g *gatedBackend) Exists(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rows[id]
	return ok, nil
}

func (g *gatedBackend) List(ctx context.Context, q record.Query) ([]*record.Row, error) {
	return nil, nil
}

func (g *gatedBackend) Count(ctx context.Context, q record.Query) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(len(g.rows)), nil
}

func (g *gatedBackend) Apply(ctx context.Context, name, sql string) (bool, error) {
	return false, nil
}

func (g *gatedBackend) Migrations(ctx context.Context) ([]record.Migration, error) {
	return nil, nil
}

// writeBehindStore returns a store that queues writes for db and flushes
// only when FlushDirty is called.
func writeBehindStore(t *testing.T, db *gatedBackend) *Store {
	s := memStore(t, nil)
	s.l3 = db
	s.cfg.WriteMode = WriteBehind
	return s
}

func TestDelete_DuringFlush(t *testing.T) {
	db := newGatedBackend(nil)
	s := writeBehindStore(t, db)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "r", "k", 1))

	flushed := make(chan error, 1)
	go func() { flushed <- s.FlushDirty(ctx) }()
	<-db.entered

	deleted := make(chan error, 1)
	go func() { deleted <- s.Delete(ctx, "r") }()
	select {
	case err := <-deleted:
		t.Fatalf("Delete returned during the flush: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(db.gate)
	require.NoError(t, <-flushed)
	require.NoError(t, <-deleted)

	ok, err := db.Exists(ctx, "r")
	require.NoError(t, err)
	assert.False(t, ok, "flushed row must not outlive the delete")
	var v int
	assert.ErrorIs(t, s.Get(ctx, "r", &v), ErrNotFound)
}

func TestDelete_DuringFailedFlush(t *testing.T) {
	db := newGatedBackend(errors.New("database is locked"))
	s := writeBehindStore(t, db)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "r", "k", 1))

	flushed := make(chan error, 1)
	go func() { flushed <- s.FlushDirty(ctx) }()
	<-db.entered

	deleted := make(chan error, 1)
	go func() { deleted <- s.Delete(ctx, "r") }()

	close(db.gate)
	require.Error(t, <-flushed)
	require.NoError(t, <-deleted)

	assert.Nil(t, s.sync.pending("r"), "a deleted row must not be queued again")
	assert.Zero(t, s.Stats().DirtyCount)

	db.fail = nil
	require.NoError(t, s.FlushDirty(ctx))
	n, err := db.Count(ctx, record.Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
