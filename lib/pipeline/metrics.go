package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticewatch",
		Name:      "notices_ingested_total",
		Help:      "Notices archived, per source.",
	}, []string{"source"})

	sourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticewatch",
		Name:      "source_errors_total",
		Help:      "Sources skipped for a pass due to fetch or persistence errors.",
	}, []string{"source"})

	dispatchBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticewatch",
		Name:      "dispatch_batches_total",
		Help:      "Notification batches submitted, by platform and outcome.",
	}, []string{"platform", "status"})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "noticewatch",
		Name:      "pass_duration_seconds",
		Help:      "Wall-clock duration of a full pipeline pass.",
	})
)

type passMetrics struct {
	fetched  int
	ingested int
	skipped  int
	notified int
	errored  int
}

func (m *passMetrics) Add(other *passMetrics) {
	m.fetched += other.fetched
	m.ingested += other.ingested
	m.skipped += other.skipped
	m.notified += other.notified
	m.errored += other.errored
}
