package jsl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ldn-softdev/jsl/internal/record"
	"github.com/redis/go-redis/v9"
)

const defaultInvalidationChannel = "jsl:invalidate"

// Invalidation ops
const (
	opEvict uint8 = iota + 1
	opEvictKind
	opFlush
)

// invalidation is the pub/sub payload telling peers which L1 entries went
// stale. It travels Blob-encoded.
type invalidation struct {
	Node string
	Op   uint8
	Kind string
	IDs  []string
}

func (m *invalidation) Fields() []any { return []any{&m.Node, &m.Op, &m.Kind, &m.IDs} }

// dirtyEntry holds a row pending write-behind flush to L3.
type dirtyEntry struct {
	row     *record.Row
	retries int
	lastErr error
}

// syncEngine manages L1 invalidation (Redis pub/sub) and write-behind flushing.
type syncEngine struct {
	s   *Store
	sub *redis.PubSub
	// flushMu is held for a whole flush; Delete takes it so a row being
	// flushed cannot land after the record was deleted.
	flushMu    sync.Mutex
	dirtyMu    sync.Mutex
	dirty      map[string]*dirtyEntry
	dirtyCount atomic.Int64
	stopCh     chan struct{}
	flushCh    chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func newSyncEngine(s *Store) *syncEngine {
	return &syncEngine{
		s:       s,
		dirty:   make(map[string]*dirtyEntry),
		stopCh:  make(chan struct{}),
		flushCh: make(chan struct{}, 1),
	}
}

// start subscribes and waits for the confirmation, so invalidations
// published after NewStore are not missed. A failed confirmation is logged
// and the subscriber keeps retrying in the background.
func (se *syncEngine) start(ctx context.Context) {
	if se.s.l2 != nil {
		se.sub = se.s.l2.Subscribe(context.Background(), se.s.cfg.InvalidationChannel)
		if _, err := se.sub.Receive(ctx); err != nil {
			se.s.logger.Warn("jsl: invalidation subscribe failed", "channel", se.s.cfg.InvalidationChannel, "err", err)
		}
		se.wg.Add(1)
		go se.subscribeLoop()
	}
	if se.s.cfg.WriteMode == WriteBehind {
		se.wg.Add(1)
		go se.writeBehindLoop()
	}
}

func (se *syncEngine) stop() {
	se.stopOnce.Do(func() {
		close(se.stopCh)
		if se.sub != nil {
			_ = se.sub.Close()
		}
		se.wg.Wait()
	})
}

func (se *syncEngine) publish(ctx context.Context, op uint8, kind string, ids []string) {
	if se.s.l2 == nil {
		return
	}
	b := New()
	if err := b.Append(&invalidation{Node: se.s.cfg.NodeID, Op: op, Kind: kind, IDs: ids}); err != nil {
		se.s.logger.Error("jsl: encoding invalidation", "err", err)
		return
	}
	if err := se.s.l2.Publish(ctx, se.s.cfg.InvalidationChannel, b.Bytes()); err != nil {
		se.s.metrics.RecordError("l2", "publish")
		se.s.logger.Warn("jsl: publishing invalidation", "err", err)
	}
}

func (se *syncEngine) subscribeLoop() {
	defer se.wg.Done()
	msgCh := se.sub.Channel()
	for {
		select {
		case <-se.stopCh:
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			se.handleInvalidation(msg.Payload)
		}
	}
}

func (se *syncEngine) handleInvalidation(payload string) {
	var msg invalidation
	if err := FromBytes([]byte(payload)).Restore(&msg); err != nil {
		se.s.logger.Warn("jsl: malformed invalidation message", "bytes", len(payload), "err", err)
		return
	}
	if msg.Node == se.s.cfg.NodeID {
		return
	}
	switch msg.Op {
	case opEvict:
		for _, id := range msg.IDs {
			se.s.l1.Delete(id)
		}
	case opEvictKind:
		se.s.l1.FlushKind(msg.Kind)
	case opFlush:
		se.s.l1.Flush()
	default:
		se.s.logger.Debug("jsl: unknown invalidation op", "op", msg.Op, "node", msg.Node)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Write-behind
// ────────────────────────────────────────────────────────────────────────────

func (se *syncEngine) queueDirty(row *record.Row) {
	se.dirtyMu.Lock()
	se.dirty[row.ID] = &dirtyEntry{row: row.Clone()}
	count := int64(len(se.dirty))
	se.dirtyMu.Unlock()
	se.dirtyCount.Store(count)

	if int(count) >= se.s.cfg.WriteBehindFlushThreshold {
		select {
		case se.flushCh <- struct{}{}:
		default:
		}
	}
}

// pending returns a copy of the queued row for id, or nil.
func (se *syncEngine) pending(id string) *record.Row {
	se.dirtyMu.Lock()
	defer se.dirtyMu.Unlock()
	if e, ok := se.dirty[id]; ok {
		return e.row.Clone()
	}
	return nil
}

func (se *syncEngine) dropDirty(id string) {
	se.dirtyMu.Lock()
	delete(se.dirty, id)
	se.dirtyCount.Store(int64(len(se.dirty)))
	se.dirtyMu.Unlock()
}

func (se *syncEngine) writeBehindLoop() {
	defer se.wg.Done()
	ticker := time.NewTicker(se.s.cfg.WriteBehindFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-se.stopCh:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = se.flushDirty(ctx)
			cancel()
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = se.flushDirty(ctx)
			cancel()
		case <-se.flushCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = se.flushDirty(ctx)
			cancel()
		}
	}
}

// flushDirty writes the queued rows in one batch. On failure the rows are
// queued again unless a newer write replaced them; a row that keeps
// failing is dropped after WriteBehindMaxRetry attempts.
func (se *syncEngine) flushDirty(ctx context.Context) error {
	if se.s.l3 == nil {
		return nil
	}
	se.flushMu.Lock()
	defer se.flushMu.Unlock()

	se.dirtyMu.Lock()
	if len(se.dirty) == 0 {
		se.dirtyMu.Unlock()
		return nil
	}
	snapshot := se.dirty
	se.dirty = make(map[string]*dirtyEntry, len(snapshot))
	se.dirtyCount.Store(0)
	se.dirtyMu.Unlock()

	rows := make([]*record.Row, 0, len(snapshot))
	ids := make([]string, 0, len(snapshot))
	for id, e := range snapshot {
		rows = append(rows, e.row)
		ids = append(ids, id)
	}
	err := se.s.l3.UpsertMany(ctx, rows)
	if err == nil {
		se.s.logger.Debug("jsl: write-behind flushed", "rows", len(rows))
		se.publish(ctx, opEvict, "", ids)
		return nil
	}
	se.s.metrics.RecordError("l3", "flush")

	se.dirtyMu.Lock()
	for id, e := range snapshot {
		e.retries++
		e.lastErr = err
		if e.retries >= se.s.cfg.WriteBehindMaxRetry {
			se.s.logger.Error("jsl: write-behind max retries exceeded", "id", id, "err", err)
			continue
		}
		if _, newer := se.dirty[id]; !newer {
			se.dirty[id] = e
		}
	}
	se.dirtyCount.Store(int64(len(se.dirty)))
	se.dirtyMu.Unlock()
	return err
}

// FlushDirty writes every queued write-behind record to the relational tier.
func (s *Store) FlushDirty(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.sync.flushDirty(ctx)
}
