package jsl

import (
	"context"
	"errors"
	"fmt"

	"github.com/ldn-softdev/jsl/internal/l2"
	"github.com/ldn-softdev/jsl/internal/record"
)

// ────────────────────────────────────────────────────────────────────────────
// Read path
// ────────────────────────────────────────────────────────────────────────────

// routerGet attempts L1 → L2 → L3 and back-fills upper tiers on a miss.
// Rows come back as stored: sealed and unverified.
func (s *Store) routerGet(ctx context.Context, id string) (*record.Row, error) {
	// L1 hit
	if row, ok := s.l1.Get(id); ok {
		s.metrics.RecordHit("l1", row.Kind)
		return row, nil
	}
	s.metrics.RecordMiss("l1", "")

	// L2 hit
	if s.l2 != nil {
		row, err := s.l2.Get(ctx, id)
		switch {
		case err == nil:
			s.metrics.RecordHit("l2", row.Kind)
			s.l1.Set(row, s.cfg.L1TTL)
			return row, nil
		case errors.Is(err, l2.ErrMiss):
			s.metrics.RecordMiss("l2", "")
		default:
			s.metrics.RecordError("l2", "get")
			s.logger.Warn("jsl: L2 read failed", "id", id, "err", err)
		}
	}

	// Queued for write-behind
	if row := s.sync.pending(id); row != nil {
		s.l1.Set(row, s.cfg.L1TTL)
		return row, nil
	}

	// L3 read
	if s.l3 == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	row, err := s.l3.Get(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			s.metrics.RecordMiss("l3", "")
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		s.metrics.RecordError("l3", "get")
		return nil, fmt.Errorf("%w: %v", ErrL3Unavailable, err)
	}
	s.metrics.RecordHit("l3", row.Kind)
	s.fill(ctx, []*record.Row{row})
	return row, nil
}

// routerGetMany resolves ids tier by tier, asking each lower tier only for
// what the upper ones missed.
func (s *Store) routerGetMany(ctx context.Context, ids []string) (map[string]*record.Row, error) {
	out := make(map[string]*record.Row, len(ids))
	var missing []string
	for _, id := range ids {
		if row, ok := s.l1.Get(id); ok {
			out[id] = row
			continue
		}
		missing = append(missing, id)
	}
	if s.l2 != nil && len(missing) > 0 {
		found, err := s.l2.GetMany(ctx, missing)
		if err != nil {
			s.metrics.RecordError("l2", "get_many")
			s.logger.Warn("jsl: L2 batch read failed", "ids", len(missing), "err", err)
		}
		rest := missing[:0]
		for _, id := range missing {
			if row, ok := found[id]; ok {
				out[id] = row
				s.l1.Set(row, s.cfg.L1TTL)
				continue
			}
			rest = append(rest, id)
		}
		missing = rest
	}
	for _, id := range missing {
		row := s.sync.pending(id)
		if row == nil && s.l3 != nil {
			var err error
			row, err = s.l3.Get(ctx, id)
			if errors.Is(err, record.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrL3Unavailable, err)
			}
			s.fill(ctx, []*record.Row{row})
		}
		if row != nil {
			out[id] = row
		}
	}
	return out, nil
}

// fill caches rows in L2 then L1.
func (s *Store) fill(ctx context.Context, rows []*record.Row) {
	if s.l2 != nil && len(rows) > 0 {
		if err := s.l2.SetMany(ctx, rows, s.cfg.L2TTL); err != nil {
			s.metrics.RecordError("l2", "set")
			s.logger.Warn("jsl: L2 back-fill failed", "rows", len(rows), "err", err)
		}
	}
	for _, row := range rows {
		s.l1.Set(row, s.cfg.L1TTL)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Write path
// ────────────────────────────────────────────────────────────────────────────

func (s *Store) routerPut(ctx context.Context, row *record.Row) error {
	if s.cfg.WriteMode == WriteBehind {
		s.fill(ctx, []*record.Row{row})
		s.sync.queueDirty(row)
		return nil
	}
	// L3 first
	if s.l3 != nil {
		if err := s.l3.Upsert(ctx, row); err != nil {
			s.metrics.RecordError("l3", "put")
			return fmt.Errorf("%w: %v", ErrL3Unavailable, err)
		}
	}
	s.fill(ctx, []*record.Row{row})
	// Invalidate other nodes
	s.sync.publish(ctx, opEvict, row.Kind, []string{row.ID})
	return nil
}

func (s *Store) routerPutMany(ctx context.Context, rows []*record.Row) error {
	if s.cfg.WriteMode == WriteBehind {
		s.fill(ctx, rows)
		for _, row := range rows {
			s.sync.queueDirty(row)
		}
		return nil
	}
	if s.l3 != nil {
		if err := s.l3.UpsertMany(ctx, rows); err != nil {
			s.metrics.RecordError("l3", "put_many")
			return fmt.Errorf("%w: %v", ErrL3Unavailable, err)
		}
	}
	s.fill(ctx, rows)
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	s.sync.publish(ctx, opEvict, "", ids)
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Delete path
// ────────────────────────────────────────────────────────────────────────────

func (s *Store) routerDelete(ctx context.Context, id string) error {
	// Wait out a write-behind flush that may still carry id.
	s.sync.flushMu.Lock()
	s.sync.dropDirty(id)
	var err error
	if s.l3 != nil {
		_, err = s.l3.Delete(ctx, id)
	}
	s.sync.flushMu.Unlock()
	if err != nil {
		s.metrics.RecordError("l3", "delete")
		return fmt.Errorf("%w: %v", ErrL3Unavailable, err)
	}
	s.evict(ctx, []string{id})
	s.sync.publish(ctx, opEvict, "", []string{id})
	return nil
}

// evict drops ids from L1 and L2 of this node only.
func (s *Store) evict(ctx context.Context, ids []string) {
	for _, id := range ids {
		s.l1.Delete(id)
	}
	if s.l2 != nil {
		if err := s.l2.Delete(ctx, ids...); err != nil {
			s.metrics.RecordError("l2", "delete")
			s.logger.Warn("jsl: L2 evict failed", "ids", ids, "err", err)
		}
	}
}
