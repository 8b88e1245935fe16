package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider()

	c := p.Counter("tasks_total", WithDescription("Tasks."), WithUnit("1"))
	c.Add(2)
	p.Counter("tasks_total").Add(3)
	require.Equal(t, int64(5), p.Value("tasks_total"), "same name, same instrument")

	live := p.UpDownCounter("live")
	live.Add(4)
	live.Add(-1)
	require.Equal(t, int64(3), p.Value("live"))

	h := p.Histogram("duration")
	h.Record(0.5)
	h.Record(1.5)
	count, sum := p.Distribution("duration")
	require.Equal(t, int64(2), count)
	require.InDelta(t, 2.0, sum, 1e-9)

	cfg, ok := p.Describe("tasks_total")
	require.True(t, ok)
	require.Equal(t, InstrumentConfig{Description: "Tasks.", Unit: "1"}, cfg)

	require.Equal(t, int64(0), p.Value("unknown"))
	count, sum = p.Distribution("unknown")
	require.Zero(t, count)
	require.Zero(t, sum)
	_, ok = p.Describe("unknown")
	require.False(t, ok)
}

func TestMemoryProvider_Concurrent(t *testing.T) {
	p := NewMemoryProvider()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Counter("n").Add(1)
				p.Histogram("h").Record(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(800), p.Value("n"))
	count, _ := p.Distribution("h")
	require.Equal(t, int64(800), count)
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NewNoopProvider()
	require.NotPanics(t, func() {
		p.Counter("c").Add(1)
		p.UpDownCounter("u").Add(-1)
		p.Histogram("h").Record(1)
	})
}
