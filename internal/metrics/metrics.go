// Package metrics exposes bot counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

const namespace = "vizitka"

// Metrics records flow and dispatch outcomes.
// Implements flow.Observer and engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	events           *prometheus.CounterVec
	eventErrors      *prometheus.CounterVec
	eventLatency     *prometheus.HistogramVec
	deliveryFailures prometheus.Counter
	validationFailed *prometheus.CounterVec
	cardsCreated     prometheus.Counter
	cardsUpdated     *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionsEvicted  prometheus.Counter
}

// New creates a Metrics set on its own registry, with Go runtime and
// process collectors included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Chat events handled, by kind",
		}, []string{"kind"}),
		eventErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Chat events that failed with an infrastructure error, by kind",
		}, []string{"kind"}),
		eventLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent handling one chat event",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		deliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Replies the transport failed to deliver",
		}),
		validationFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected field inputs, by field",
		}, []string{"field"}),
		cardsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_created_total",
			Help:      "Completed create flows",
		}),
		cardsUpdated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_updated_total",
			Help:      "Completed field edits, by field",
		}, []string{"field"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Users with a non-idle conversation state",
		}),
		sessionsEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Abandoned conversations removed by the sweeper",
		}),
	}
}

func (m *Metrics) EventHandled(kind chat.EventKind, elapsed time.Duration, err error) {
	m.events.WithLabelValues(kind.String()).Inc()
	m.eventLatency.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	if err != nil {
		m.eventErrors.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) DeliveryFailed() {
	m.deliveryFailures.Inc()
}

func (m *Metrics) ValidationFailed(f card.Field) {
	m.validationFailed.WithLabelValues(f.Key()).Inc()
}

func (m *Metrics) CardCreated() {
	m.cardsCreated.Inc()
}

func (m *Metrics) CardUpdated(f card.Field) {
	m.cardsUpdated.WithLabelValues(f.Key()).Inc()
}

// SessionsSwept records one sweeper pass.
func (m *Metrics) SessionsSwept(evicted, remaining int) {
	m.sessionsEvicted.Add(float64(evicted))
	m.sessionsActive.Set(float64(remaining))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr at /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
