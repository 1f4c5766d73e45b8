package metrics_test

import (
	"testing"
	"time"

	"github.com/ldn-softdev/jsl/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestNoop_AllMethods(t *testing.T) {
	var r metrics.Recorder = metrics.Noop{}
	r.RecordHit("l1", "doc")
	r.RecordMiss("l2", "doc")
	r.RecordLatency("l1", "get", 100*time.Millisecond)
	r.RecordError("l2", "set")
	r.RecordBytes("put", 5)
}

func TestCounter(t *testing.T) {
	c := metrics.NewCounter()
	var r metrics.Recorder = c
	r.RecordHit("l1", "doc")
	r.RecordHit("l1", "img")
	r.RecordMiss("l2", "doc")
	r.RecordError("l3", "get")
	r.RecordBytes("put", 10)
	r.RecordBytes("put", 5)
	r.RecordLatency("l1", "get", time.Second)

	assert.Equal(t, int64(2), c.Get("hit:l1"))
	assert.Equal(t, int64(1), c.Get("miss:l2"))
	assert.Equal(t, int64(1), c.Get("error:l3:get"))
	assert.Equal(t, int64(15), c.Get("bytes:put"))
	assert.Zero(t, c.Get("hit:l3"))
}
