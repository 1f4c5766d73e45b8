// Package metrics provides the Recorder interface the record store reports
// to, a noop implementation and an in-memory Counter.
package metrics

import (
	"sync"
	"time"
)

// Recorder receives operational metrics. Tier is "l1", "l2" or "l3".
type Recorder interface {
	RecordHit(tier, kind string)
	RecordMiss(tier, kind string)
	RecordLatency(tier, op string, d time.Duration)
	RecordError(tier, op string)
	RecordBytes(op string, n int)
}

// Noop is a Recorder that discards all data.
type Noop struct{}

func (Noop) RecordHit(tier, kind string)                    {}
func (Noop) RecordMiss(tier, kind string)                   {}
func (Noop) RecordLatency(tier, op string, d time.Duration) {}
func (Noop) RecordError(tier, op string)                    {}
func (Noop) RecordBytes(op string, n int)                   {}

// Counter tallies events in memory, keyed "hit:<tier>", "miss:<tier>",
// "error:<tier>:<op>" and "bytes:<op>".
type Counter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

func (c *Counter) add(key string, n int64) {
	c.mu.Lock()
	c.counts[key] += n
	c.mu.Unlock()
}

func (c *Counter) RecordHit(tier, kind string)                    { c.add("hit:"+tier, 1) }
func (c *Counter) RecordMiss(tier, kind string)                   { c.add("miss:"+tier, 1) }
func (c *Counter) RecordLatency(tier, op string, d time.Duration) {}
func (c *Counter) RecordError(tier, op string)                    { c.add("error:"+tier+":"+op, 1) }
func (c *Counter) RecordBytes(op string, n int)                   { c.add("bytes:"+op, int64(n)) }

// Get returns the tally for key.
func (c *Counter) Get(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}
