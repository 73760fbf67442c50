// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectedDevices prometheus.Gauge
	ActiveMatches    prometheus.Gauge
	ChoicesRelayed   prometheus.Counter
	DuelsCompleted   prometheus.Counter
	RelayLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ConnectedDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_devices",
			Help:      "Number of connected devices",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Number of matches currently in play",
		}),
		ChoicesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_relayed_total",
			Help:      "Total number of choice packets relayed between peers",
		}),
		DuelsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duels_completed_total",
			Help:      "Total number of duels played to an outcome",
		}),
		RelayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_latency_seconds",
			Help:      "Choice relay handling latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.ConnectedDevices,
		m.ActiveMatches,
		m.ChoicesRelayed,
		m.DuelsCompleted,
		m.RelayLatency,
	)

	return m
}

type Monitor struct {
	metrics    *Metrics
	startTime  time.Time
	relayCount int64
	mutex      sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("relays", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.relayCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncConnectedDevices() {
	m.metrics.ConnectedDevices.Inc()
}

func (m *Monitor) DecConnectedDevices() {
	m.metrics.ConnectedDevices.Dec()
}

func (m *Monitor) SetActiveMatches(count int) {
	m.metrics.ActiveMatches.Set(float64(count))
}

func (m *Monitor) IncChoicesRelayed() {
	m.metrics.ChoicesRelayed.Inc()
	m.mutex.Lock()
	m.relayCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncDuelsCompleted() {
	m.metrics.DuelsCompleted.Inc()
}

func (m *Monitor) ObserveRelayLatency(duration time.Duration) {
	m.metrics.RelayLatency.Observe(duration.Seconds())
}
