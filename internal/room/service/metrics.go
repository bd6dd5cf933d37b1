package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"room-studio/internal/common/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics считает операции сервиса по исходу и время ответа моделей.
// Нулевой *Metrics допустим: всё превращается в no-op.
type Metrics struct {
	operations *prometheus.CounterVec
	upstream   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "room",
			Name:      "operations_total",
			Help:      "Room service operations by outcome.",
		}, []string{"op", "outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "room",
			Name:      "upstream_duration_seconds",
			Help:      "Latency of analyzer and renderer calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.upstream)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case apperr.KindOf(err) == "":
		outcome = "internal"
	default:
		outcome = strings.ToLower(string(apperr.KindOf(err)))
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) upstreamLatency(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(op).Observe(d.Seconds())
}

// RegisterActiveSessions публикует число сессий с незавершёнными операциями.
func RegisterActiveSessions(reg prometheus.Registerer, locks *SessionLocks) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "room",
		Name:      "sessions_active",
		Help:      "Sessions with an operation in progress.",
	}, func() float64 { return float64(locks.Len()) }))
}
