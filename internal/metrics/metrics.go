package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotgen",
			Name:      "generations_total",
			Help:      "Count of generation runs by outcome.",
		},
		[]string{"outcome"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotgen",
			Name:      "slots_generated_total",
			Help:      "Count of slots produced across all runs.",
		},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "slotgen",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating one batch.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotgen",
			Name:      "bot_updates_total",
			Help:      "Count of handled Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotgen",
			Name:      "exports_total",
			Help:      "Count of batch exports by format.",
		},
		[]string{"format"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(generations, slotsGenerated, generationDuration, botUpdates, exports)
	})
}

func IncGeneration(outcome string) {
	generations.WithLabelValues(outcome).Inc()
}

func AddSlotsGenerated(n int) {
	slotsGenerated.Add(float64(n))
}

func ObserveGenerationDuration(seconds float64) {
	generationDuration.Observe(seconds)
}

func IncBotUpdate(kind string) {
	botUpdates.WithLabelValues(kind).Inc()
}

func IncExport(format string) {
	exports.WithLabelValues(format).Inc()
}
