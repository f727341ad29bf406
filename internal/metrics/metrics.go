// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_interviewer_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ai_interviewer_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_interviewer_llm_calls_total",
			Help: "Total number of language model calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_interviewer_llm_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"operation"},
	)

	QuestionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_interviewer_questions_generated_total",
			Help: "Total number of interview questions generated by difficulty",
		},
		[]string{"difficulty"},
	)

	AnswersScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_interviewer_answers_scored_total",
			Help: "Total number of answers recorded by scoring outcome",
		},
		[]string{"outcome"},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_interviewer_registrations_total",
			Help: "Total number of candidate registrations by result",
		},
		[]string{"result"},
	)

	InterviewsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_interviewer_interviews_summarized_total",
			Help: "Total number of interview summaries produced",
		},
	)
)

// Result labels shared by the counters above.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ObserveLLMCall records the outcome and latency of one language model call.
func ObserveLLMCall(operation string, started time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	LLMCalls.WithLabelValues(operation, result).Inc()
	LLMCallDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
