// Package metrics holds the Prometheus collectors of the bot.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	Interactions *prometheus.CounterVec
	Toggles      *prometheus.CounterVec
	Draws        *prometheus.CounterVec
	Followups    *prometheus.CounterVec

	DrawDuration prometheus.Observer

	QueueDepth      prometheus.Gauge
	DeadLetterDepth prometheus.Gauge
)

// Init registers the collectors with the default registry (idempotent).
// Helpers below are no-ops until Init runs, so packages stay usable in tests.
func Init() {
	once.Do(func() {
		Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_interactions_total",
			Help: "Interactions handled, by interaction type and outcome",
		}, []string{"type", "outcome"})
		Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_toggles_total",
			Help: "Participation toggles, by resulting action",
		}, []string{"action"})
		Draws = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_draws_total",
			Help: "Draw task executions, by outcome",
		}, []string{"outcome"})
		Followups = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_followups_total",
			Help: "Deferred follow-up executions, by outcome",
		}, []string{"outcome"})
		DrawDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "giveaway_draw_duration_seconds",
			Help:    "Draw duration seconds",
			Buckets: prometheus.DefBuckets,
		})
		QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "giveaway_draw_queue_depth",
			Help: "Draw tasks waiting in the delayed queue",
		})
		DeadLetterDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "giveaway_draw_dead_letters",
			Help: "Draw tasks moved to the undelivered list",
		})
	})
}

func IncInteraction(kind, outcome string) {
	if Interactions != nil {
		Interactions.WithLabelValues(kind, outcome).Inc()
	}
}

func IncToggle(action string) {
	if Toggles != nil {
		Toggles.WithLabelValues(action).Inc()
	}
}

func IncDraw(outcome string) {
	if Draws != nil {
		Draws.WithLabelValues(outcome).Inc()
	}
}

func IncFollowup(outcome string) {
	if Followups != nil {
		Followups.WithLabelValues(outcome).Inc()
	}
}

func SetQueueDepth(n int64) {
	if QueueDepth != nil {
		QueueDepth.Set(float64(n))
	}
}

func SetDeadLetterDepth(n int64) {
	if DeadLetterDepth != nil {
		DeadLetterDepth.Set(float64(n))
	}
}

// ObserveDraw records the time elapsed since start.
func ObserveDraw(start time.Time) {
	if DrawDuration != nil {
		DrawDuration.Observe(time.Since(start).Seconds())
	}
}
