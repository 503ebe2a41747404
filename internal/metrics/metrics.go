// Package metrics records Prometheus metrics for outbound backend calls.
//
// The API client wraps its transport with InstrumentRoundTripper. The CLI
// exposes the default registry on METRICS_ADDR when it is set.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	apiErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total number of failed backend API requests (transport errors and status >= 400)",
		},
		[]string{"method", "path", "status"},
	)

	supportPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "support",
			Name:      "polls_total",
			Help:      "Support ticket polls by outcome",
		},
		[]string{"outcome"},
	)
)

// Register adds the portal collectors to the default registry.
func Register() {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector")
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector")
	registerIfNotExists(apiRequestsTotal, "api_requests_total")
	registerIfNotExists(apiRequestDuration, "api_request_duration_seconds")
	registerIfNotExists(apiErrorsTotal, "api_errors_total")
	registerIfNotExists(supportPollsTotal, "support_polls_total")
}

func registerIfNotExists(collector prometheus.Collector, name string) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			zap.L().Debug("Collector already registered", zap.String("collector", name))
			return
		}
		zap.L().Error("Failed to register collector", zap.String("collector", name), zap.Error(err))
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// InstrumentRoundTripper records count, latency and failures for every
// request sent through next.
func InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		resp, err := next.RoundTrip(r)

		apiRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		apiRequestsTotal.WithLabelValues(method, path, status).Inc()
		if err != nil || resp.StatusCode >= 400 {
			apiErrorsTotal.WithLabelValues(method, path, status).Inc()
		}

		return resp, err
	})
}

// ObservePoll counts one support poll outcome ("ok", "error", "stale").
func ObservePoll(outcome string) {
	supportPollsTotal.WithLabelValues(outcome).Inc()
}

// NormalizePath replaces identifier segments with ":id" to keep label
// cardinality bounded.
func NormalizePath(path string) string {
	if path == "" {
		return "unknown"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if looksLikeId(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeId(seg string) bool {
	if seg == "" {
		return false
	}
	digits := 0
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && (digits == len(seg) || len(seg) >= 16)
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// StartServer serves the default registry on addr in the background.
func StartServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}

	go func() {
		zap.L().Info("Metrics server listening", zap.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Metrics server failed", zap.Error(err))
		}
	}()

	return s
}

func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
