// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l1.go — in-process record cache: 256 murmur3-hashed shards, per-entry TTL,
// LRU/LFU/FIFO eviction and a background expiry sweep.

// Package l1 provides a sharded, concurrent in-memory record cache with TTL
// and eviction.
package l1

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ldn-softdev/jsl/internal/clock"
	"github.com/ldn-softdev/jsl/internal/record"
	"github.com/spaolacci/murmur3"
)

const numShards = 256

// EvictionPolicy determines which entry is removed when a shard is full.
type EvictionPolicy int

const (
	LRU  EvictionPolicy = iota // Least Recently Used
	LFU                        // Least Frequently Used
	FIFO                       // First In, First Out
)

// Options configures an L1 Store. MaxEntries bounds each shard.
type Options struct {
	TTL           time.Duration
	MaxEntries    int
	Eviction      EvictionPolicy
	SweepInterval time.Duration
	Clock         clock.Clock
	OnEvict       func(id string, row *record.Row)
}

type entry struct {
	row       *record.Row
	expiresAt time.Time
	freq      int
	elem      *list.Element
}

type shard struct {
	mu         sync.Mutex
	items      map[string]*entry
	evictList  *list.List
	maxEntries int
	policy     EvictionPolicy
	onEvict    func(id string, row *record.Row)
}

// Store is the sharded in-memory cache. Rows are copied on the way in and
// on the way out.
type Store struct {
	shards    [numShards]*shard
	opts      Options
	clock     clock.Clock
	hits      atomic.Int64
	misses    atomic.Int64
	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a new L1 Store and starts its sweeper.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = 30 * time.Second
	}
	s := &Store{opts: opts, clock: opts.Clock, stopCh: make(chan struct{})}
	for i := 0; i < numShards; i++ {
		s.shards[i] = &shard{
			items:      make(map[string]*entry),
			evictList:  list.New(),
			maxEntries: opts.MaxEntries,
			policy:     opts.Eviction,
			onEvict:    opts.OnEvict,
		}
	}
	go s.sweepLoop()
	return s
}

func (s *Store) shardFor(id string) *shard {
	return s.shards[murmur3.Sum32([]byte(id))%numShards]
}

// Set caches a copy of row under row.ID. ttl 0 uses the default TTL.
func (s *Store) Set(row *record.Row, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.opts.TTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl)
	}
	row = row.Clone()

	sh := s.shardFor(row.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.items[row.ID]; ok {
		e.row = row
		e.expiresAt = expiresAt
		e.freq++
		if sh.policy != LFU {
			sh.evictList.MoveToFront(e.elem)
		}
		return
	}
	if sh.maxEntries > 0 && len(sh.items) >= sh.maxEntries {
		sh.evict()
	}
	e := &entry{row: row, expiresAt: expiresAt, freq: 1}
	switch sh.policy {
	case LRU, FIFO:
		e.elem = sh.evictList.PushFront(e)
	case LFU:
		e.elem = sh.evictList.PushBack(e)
	}
	sh.items[row.ID] = e
}

// Get returns a copy of the cached row for id.
func (s *Store) Get(id string) (*record.Row, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[id]
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	if !e.expiresAt.IsZero() && s.clock.Now().After(e.expiresAt) {
		sh.removeEntry(e)
		s.misses.Add(1)
		return nil, false
	}
	e.freq++
	if sh.policy == LRU {
		sh.evictList.MoveToFront(e.elem)
	}
	s.hits.Add(1)
	return e.row.Clone(), true
}

// Delete evicts id.
func (s *Store) Delete(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.items[id]; ok {
		sh.removeEntry(e)
	}
}

// Flush removes every entry.
func (s *Store) Flush() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]*entry)
		sh.evictList.Init()
		sh.mu.Unlock()
	}
}

// FlushKind removes every row of the given kind.
func (s *Store) FlushKind(kind string) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.items {
			if e.row.Kind == kind {
				sh.removeEntry(e)
			}
		}
		sh.mu.Unlock()
	}
}

// Stats holds hit/miss/entry counts.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// Stats returns current statistics.
func (s *Store) Stats() Stats {
	var total int64
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += int64(len(sh.items))
		sh.mu.Unlock()
	}
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Entries: total}
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.stopCh) })
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) sweep() {
	now := s.clock.Now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.items {
			if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
				sh.removeEntry(e)
			}
		}
		sh.mu.Unlock()
	}
}

func (sh *shard) evict() {
	switch sh.policy {
	case LRU, FIFO:
		if back := sh.evictList.Back(); back != nil {
			sh.removeEntry(back.Value.(*entry))
		}
	case LFU:
		var least *entry
		for _, e := range sh.items {
			if least == nil || e.freq < least.freq {
				least = e
			}
		}
		if least != nil {
			sh.removeEntry(least)
		}
	}
}

func (sh *shard) removeEntry(e *entry) {
	delete(sh.items, e.row.ID)
	if e.elem != nil {
		sh.evictList.Remove(e.elem)
	}
	if sh.onEvict != nil {
		sh.onEvict(e.row.ID, e.row)
	}
}
