package metrics

import (
	"sync"
	"sync/atomic"
)

// MemoryProvider keeps instruments in memory and exposes their current values.
// Counters and up/down counters share one namespace.
type MemoryProvider struct {
	mu         sync.Mutex
	levels     map[string]*memLevel
	histograms map[string]*memHistogram
	meta       map[string]InstrumentConfig
}

// NewMemoryProvider constructs an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		levels:     make(map[string]*memLevel),
		histograms: make(map[string]*memHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

func (p *MemoryProvider) level(name string, opts []InstrumentOption) *memLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.levels[name]
	if !ok {
		l = &memLevel{}
		p.levels[name] = l
		p.meta[name] = applyOptions(opts)
	}
	return l
}

func (p *MemoryProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.level(name, opts)
}

func (p *MemoryProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.level(name, opts)
}

func (p *MemoryProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = &memHistogram{}
		p.histograms[name] = h
		p.meta[name] = applyOptions(opts)
	}
	return h
}

// Value returns the current value of the counter or up/down counter name,
// zero if it was never created.
func (p *MemoryProvider) Value(name string) int64 {
	p.mu.Lock()
	l, ok := p.levels[name]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	return l.val.Load()
}

// Distribution returns the number and the sum of the measurements recorded by histogram name.
func (p *MemoryProvider) Distribution(name string) (count int64, sum float64) {
	p.mu.Lock()
	h, ok := p.histograms[name]
	p.mu.Unlock()
	if !ok {
		return 0, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count, h.sum
}

// Describe returns the metadata the instrument name was created with.
func (p *MemoryProvider) Describe(name string) (InstrumentConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.meta[name]
	return c, ok
}

type memLevel struct {
	val atomic.Int64
}

func (l *memLevel) Add(n int64) { l.val.Add(n) }

type memHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
}

func (h *memHistogram) Record(v float64) {
	h.mu.Lock()
	h.count++
	h.sum += v
	h.mu.Unlock()
}
