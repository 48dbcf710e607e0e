// Package metrics contains support for reporting metrics to an external
// server, currently a Prometheus pushgateway. Lint refreshes happen inside a
// transient interactive process, so we can't wait around for Prometheus to
// call us; we've got to push to them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/annotate/src/core"
)

var log = logging.MustGetLogger("metrics")

// This is the maximum number of errors after which we stop attempting to send metrics.
const maxErrors = 3

type metrics struct {
	url              string
	ticker           *time.Ticker
	stop             chan struct{}
	errors           int
	timeout          time.Duration
	registry         *prometheus.Registry
	refreshCounter   *prometheus.CounterVec
	warningCounter   prometheus.Counter
	failureCounter   prometheus.Counter
	refreshHistogram prometheus.Histogram
}

// m is the singleton metrics instance. Nil when metrics are disabled.
var m *metrics

// InitFromConfig sets up the initial metrics from the configuration.
// Without a pushgateway URL configured this does nothing.
func InitFromConfig(config *core.Configuration) {
	if config.Metrics.PushGatewayURL != "" {
		m = initMetrics(config.Metrics.PushGatewayURL, time.Duration(config.Metrics.PushFrequency),
			time.Duration(config.Metrics.PushTimeout))
		go m.loop()
	}
}

// initMetrics initialises a new metrics instance.
// This is deliberately not exposed but is useful for testing.
func initMetrics(url string, frequency, timeout time.Duration) *metrics {
	m := &metrics{
		url:      url,
		ticker:   time.NewTicker(frequency),
		stop:     make(chan struct{}),
		timeout:  timeout,
		registry: prometheus.NewRegistry(),
	}
	m.refreshCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lint_refreshes_total",
		Help: "Count of lint refreshes, by whether all linters ran cleanly",
	}, []string{"outcome"})
	m.warningCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lint_warnings_total",
		Help: "Count of warnings produced across all refreshes",
	})
	m.failureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lint_tool_failures_total",
		Help: "Count of individual linter invocations that failed to run",
	})
	m.refreshHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lint_refresh_duration_seconds",
		Help:    "Time taken to run all linters for one document",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	m.registry.MustRegister(m.refreshCounter)
	m.registry.MustRegister(m.warningCounter)
	m.registry.MustRegister(m.failureCounter)
	m.registry.MustRegister(m.refreshHistogram)
	return m
}

// Record observes one completed refresh. It's a no-op if metrics are disabled.
func Record(filename string, warnings, failures int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "clean"
	if failures > 0 {
		outcome = "failed"
	}
	m.refreshCounter.WithLabelValues(outcome).Inc()
	m.warningCounter.Add(float64(warnings))
	m.failureCounter.Add(float64(failures))
	m.refreshHistogram.Observe(duration.Seconds())
	log.Debug("Recorded refresh of %s: %d warnings, %d failures", filename, warnings, failures)
}

// Stop pushes any final metrics and stops the background push loop.
func Stop() {
	if m != nil {
		close(m.stop)
		m.ticker.Stop()
		m.push()
		m = nil
	}
}

func (m *metrics) loop() {
	for {
		select {
		case <-m.ticker.C:
			m.push()
		case <-m.stop:
			return
		}
	}
}

func (m *metrics) push() {
	if m.errors >= maxErrors {
		return
	}
	pusher := push.New(m.url, "annotate").Gatherer(m.registry).Client(&http.Client{Timeout: m.timeout})
	if err := pusher.Push(); err != nil {
		m.errors++
		log.Warning("Could not push metrics to the gateway: %s", err)
		if m.errors == maxErrors {
			log.Warning("Giving up on pushing metrics after %d errors", maxErrors)
		}
	}
}
