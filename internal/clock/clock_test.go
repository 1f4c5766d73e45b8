package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ldn-softdev/jsl/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestMockClock_DefaultEpoch(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), clk.Now())
}

func TestMockClock_Set(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk.Set(ts)
	assert.Equal(t, ts, clk.Now())
}

func TestMockClock_Advance(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	before := clk.Now()
	clk.Advance(10 * time.Second)
	assert.Equal(t, 10*time.Second, clk.Now().Sub(before))
}

func TestMockClock_Concurrent(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	start := clk.Now()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clk.Advance(time.Millisecond)
				_ = clk.Now()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800*time.Millisecond, clk.Now().Sub(start))
}

func TestRealClock(t *testing.T) {
	clk := clock.Real{}
	before := time.Now()
	got := clk.Now()
	after := time.Now()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}
