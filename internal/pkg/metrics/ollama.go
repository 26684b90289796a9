package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ollamaRequestDuration tracks local model request duration in seconds
	ollamaRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "angela_ollama_request_duration_seconds",
			Help:    "Ollama request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation", "model"},
	)

	// ollamaRequestErrors tracks failed local model requests
	ollamaRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "angela_ollama_request_errors_total",
			Help: "Total number of failed Ollama requests",
		},
		[]string{"operation", "model"},
	)

	// ollamaTokensGenerated tracks tokens produced by chat completions
	ollamaTokensGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "angela_ollama_tokens_generated_total",
			Help: "Total tokens generated by the local model",
		},
		[]string{"model"},
	)

	// sseSubscribers tracks connected event stream subscribers
	sseSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "angela_sse_subscribers",
			Help: "Number of connected SSE subscribers",
		},
	)
)

// RecordOllamaRequest records a local model request
func RecordOllamaRequest(operation, model string, duration time.Duration, err error) {
	ollamaRequestDuration.WithLabelValues(operation, model).Observe(duration.Seconds())
	if err != nil {
		ollamaRequestErrors.WithLabelValues(operation, model).Inc()
	}
}

// RecordOllamaTokens records tokens generated by a chat completion
func RecordOllamaTokens(model string, count int) {
	if count > 0 {
		ollamaTokensGenerated.WithLabelValues(model).Add(float64(count))
	}
}

// SSESubscriberConnected increments the subscriber gauge
func SSESubscriberConnected() {
	sseSubscribers.Inc()
}

// SSESubscriberDisconnected decrements the subscriber gauge
func SSESubscriberDisconnected() {
	sseSubscribers.Dec()
}
