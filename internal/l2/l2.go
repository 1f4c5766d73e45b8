// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l2.go — Redis record cache: rows encoded with the configured codec under
// "<prefix>:<id>", pipelined batch reads and writes, SCAN-based flush and the
// pub/sub channel that carries invalidations between processes.

// Package l2 provides the Redis tier cache adapter.
package l2

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ldn-softdev/jsl/internal/codec"
	"github.com/ldn-softdev/jsl/internal/record"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the id is not cached. Callers use
// errors.Is(err, l2.ErrMiss) to tell a miss from a Redis failure.
var ErrMiss = errors.New("l2: miss")

// DefaultKeyPrefix namespaces keys when Options.KeyPrefix is empty.
const DefaultKeyPrefix = "jsl"

// setArgsPool pools the argument slice of SET commands.
var setArgsPool = sync.Pool{
	New: func() any {
		s := make([]any, 0, 6) // "set", key, value, "ex"/"px", ttl, (spare)
		return &s
	},
}

// Store is the L2 Redis cache adapter.
type Store struct {
	client    redis.UniversalClient
	codec     codec.Codec
	keyPrefix string
	hits      atomic.Int64
	misses    atomic.Int64
}

// Options configures a new L2 Store.
type Options struct {
	Client    redis.UniversalClient
	Codec     codec.Codec
	KeyPrefix string
}

// New creates a new L2 Store. Rows are encoded as MessagePack unless a
// codec is given.
func New(opts Options) *Store {
	if opts.Codec == nil {
		opts.Codec = codec.MsgPack{}
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	return &Store{client: opts.Client, codec: opts.Codec, keyPrefix: opts.KeyPrefix}
}

// Key returns the Redis key of id.
func (s *Store) Key(id string) string {
	return s.keyPrefix + ":" + id
}

// set sends SET through a pooled args slice. ttl < 1s uses PX, larger
// values EX, redis.KeepTTL KEEPTTL; anything else persists.
func (s *Store) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ap := setArgsPool.Get().(*[]any)
	args := (*ap)[:0]
	switch {
	case ttl > 0 && ttl < time.Second:
		args = append(args, "set", key, value, "px", ttl.Milliseconds())
	case ttl > 0:
		args = append(args, "set", key, value, "ex", int64(ttl.Seconds()))
	case ttl == redis.KeepTTL:
		args = append(args, "set", key, value, "keepttl")
	default:
		args = append(args, "set", key, value)
	}
	err := s.client.Do(ctx, args...).Err()
	clear(args)
	*ap = args[:0]
	setArgsPool.Put(ap)
	return err
}

// Set caches row under its ID.
func (s *Store) Set(ctx context.Context, row *record.Row, ttl time.Duration) error {
	b, err := s.codec.Marshal(row)
	if err != nil {
		return fmt.Errorf("l2 marshal %s: %w", row.ID, err)
	}
	k := s.Key(row.ID)
	if err := s.set(ctx, k, b, ttl); err != nil {
		return fmt.Errorf("l2 set %s: %w", k, err)
	}
	return nil
}

// Get returns the cached row for id, or ErrMiss.
func (s *Store) Get(ctx context.Context, id string) (*record.Row, error) {
	k := s.Key(id)
	b, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("l2 get %s: %w", k, err)
	}
	s.hits.Add(1)
	return s.decode(k, b)
}

func (s *Store) decode(k string, b []byte) (*record.Row, error) {
	row := new(record.Row)
	if err := s.codec.Unmarshal(b, row); err != nil {
		return nil, fmt.Errorf("l2 unmarshal %s: %w", k, err)
	}
	return row, nil
}

// Exists reports whether id is cached.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	k := s.Key(id)
	n, err := s.client.Exists(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("l2 exists %s: %w", k, err)
	}
	return n > 0, nil
}

// Delete evicts ids.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.Key(id)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("l2 delete %v: %w", ids, err)
	}
	return nil
}

// SetMany caches rows in one pipeline round trip.
func (s *Store) SetMany(ctx context.Context, rows []*record.Row, ttl time.Duration) error {
	pipe := s.client.Pipeline()
	for _, row := range rows {
		b, err := s.codec.Marshal(row)
		if err != nil {
			return fmt.Errorf("l2 marshal %s: %w", row.ID, err)
		}
		pipe.Set(ctx, s.Key(row.ID), b, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("l2 set-many: %w", err)
	}
	return nil
}

// GetMany returns the cached rows among ids; missing ids are absent from
// the result.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]*record.Row, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.Key(id))
	}
	_, _ = pipe.Exec(ctx)

	out := make(map[string]*record.Row, len(ids))
	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				s.misses.Add(1)
				continue
			}
			return nil, fmt.Errorf("l2 get-many %s: %w", ids[i], err)
		}
		s.hits.Add(1)
		row, err := s.decode(s.Key(ids[i]), b)
		if err != nil {
			return nil, err
		}
		out[ids[i]] = row
	}
	return out, nil
}

// Flush removes every key under the prefix using SCAN+DEL.
func (s *Store) Flush(ctx context.Context) error {
	pattern := s.keyPrefix + ":*"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("l2 scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("l2 flush: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Publish sends payload on channel.
func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a subscription on channel.
func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.client.Subscribe(ctx, channel)
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats holds hit and miss counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns current statistics.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}
