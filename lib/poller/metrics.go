package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzdealz_notification_polls_total",
			Help: "Notification polls by outcome",
		},
		[]string{"outcome"},
	)

	surfacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buzdealz_notifications_surfaced_total",
			Help: "Notifications surfaced to the user as price drop notices",
		},
	)

	unreadGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "buzdealz_notifications_unread",
			Help: "Unread notifications of the signed-in user",
		},
	)
)

type pollMetrics struct {
	fetched  int
	surfaced int
	baseline int
	skipped  int
	errored  int
}

func (m *pollMetrics) Add(other *pollMetrics) {
	m.fetched += other.fetched
	m.surfaced += other.surfaced
	m.baseline += other.baseline
	m.skipped += other.skipped
	m.errored += other.errored
}

func (m *pollMetrics) outcome() string {
	switch {
	case m.errored > 0:
		return "error"
	case m.skipped > 0:
		return "skipped"
	case m.baseline > 0:
		return "baseline"
	default:
		return "ok"
	}
}

func (m *pollMetrics) record() {
	pollsTotal.WithLabelValues(m.outcome()).Inc()
	surfacedTotal.Add(float64(m.surfaced))
}

func (m *pollMetrics) logArgs() []any {
	return []any{
		"fetched", m.fetched,
		"surfaced", m.surfaced,
		"baseline", m.baseline,
		"errored", m.errored,
	}
}
