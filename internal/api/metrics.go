package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestDuration tracks request latency per route.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concord_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// AssessmentsTotal counts completed analyses by final label and branch.
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_assessments_total",
			Help: "Total number of completed couple assessments",
		},
		[]string{"risk", "branch"},
	)

	// AssessmentConfidence records the model's confidence per analysis.
	AssessmentConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "concord_assessment_confidence",
			Help:    "Maximum class probability of the risk model per assessment",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// AnalysisErrors counts failed analyses by error kind.
	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_analysis_errors_total",
			Help: "Total number of failed assessments by error kind",
		},
		[]string{"kind"},
	)

	// TrainingRequests counts training requests by outcome.
	TrainingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_training_requests_total",
			Help: "Total number of training requests",
		},
		[]string{"result"}, // "started", "rejected"
	)
)

// prometheusMetrics records request duration by route pattern.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		APIRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
