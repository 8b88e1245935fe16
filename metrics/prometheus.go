package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider backs instruments with Prometheus collectors registered on
// a private registry. Nothing is served over the network: the registry is
// exposed through Gatherer and can be dumped with WriteTextfile for the
// node_exporter textfile collector.
type PrometheusProvider struct {
	namespace string
	reg       *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusProvider creates a provider prefixing every metric with namespace.
func NewPrometheusProvider(namespace string) *PrometheusProvider {
	return &PrometheusProvider{
		namespace:  namespace,
		reg:        prometheus.NewRegistry(),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func help(name string, cfg InstrumentConfig) string {
	if cfg.Description != "" {
		return cfg.Description
	}
	return name
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      help(name, applyOptions(opts)),
		})
		p.reg.MustRegister(c)
		p.counters[name] = c
	}
	return promCounter{c: c}
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      help(name, applyOptions(opts)),
		})
		p.reg.MustRegister(g)
		p.gauges[name] = g
	}
	return promGauge{g: g}
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      help(name, applyOptions(opts)),
			// external processes run for seconds, not milliseconds
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		})
		p.reg.MustRegister(h)
		p.histograms[name] = h
	}
	return promHistogram{h: h}
}

// Gatherer returns the registry holding every instrument created so far.
func (p *PrometheusProvider) Gatherer() prometheus.Gatherer { return p.reg }

// WriteTextfile atomically writes the current values in the text exposition format.
func (p *PrometheusProvider) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}

type promCounter struct{ c prometheus.Counter }

// Add ignores negative deltas: Prometheus counters only go up.
func (c promCounter) Add(n int64) {
	if n > 0 {
		c.c.Add(float64(n))
	}
}

type promGauge struct{ g prometheus.Gauge }

func (g promGauge) Add(n int64) { g.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Histogram }

func (h promHistogram) Record(v float64) { h.h.Observe(v) }
