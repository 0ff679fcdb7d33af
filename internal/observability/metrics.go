package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/omex-backend/internal/platform/logger"
)

// Metrics holds the process-wide Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	conversions       *CounterVec
	conversionLatency *HistogramVec

	loginFailures   *CounterVec
	quizSubmissions *CounterVec
	tokensAwarded   *CounterVec
	planInitialized *CounterVec
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Current returns the metrics installed by Init, or nil when disabled.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// Init installs the process metrics when enabled. Repeated calls return the same instance.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if instance == nil {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	}
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("omex_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"omex_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("omex_api_inflight_requests", "In-flight API requests."),
		conversions: NewCounterVec("omex_conversions_total", "PDF conversions by outcome.", []string{"outcome"}),
		conversionLatency: NewHistogramVec(
			"omex_conversion_duration_seconds",
			"Converter subprocess latency in seconds by outcome.",
			[]string{"outcome"},
			[]float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		),
		loginFailures:   NewCounterVec("omex_login_failures_total", "Rejected logins by reason.", []string{"reason"}),
		quizSubmissions: NewCounterVec("omex_quiz_submissions_total", "Quiz submissions by result.", []string{"passed"}),
		tokensAwarded:   NewCounterVec("omex_tokens_awarded_total", "Tokens credited for passed quizzes.", nil),
		planInitialized: NewCounterVec("omex_study_plans_initialized_total", "Study plans generated.", nil),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveConversion records one gateway call. outcome is ok, rejected, failed or timeout.
func (m *Metrics) ObserveConversion(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.conversions.Inc(outcome)
	if dur > 0 {
		m.conversionLatency.Observe(dur.Seconds(), outcome)
	}
}

func (m *Metrics) IncLoginFailure(reason string) {
	if m == nil {
		return
	}
	m.loginFailures.Inc(reason)
}

func (m *Metrics) ObserveQuizSubmission(passed bool, tokens int) {
	if m == nil {
		return
	}
	m.quizSubmissions.Inc(strconv.FormatBool(passed))
	if tokens > 0 {
		m.tokensAwarded.Add(float64(tokens))
	}
}

func (m *Metrics) IncPlanInitialized() {
	if m == nil {
		return
	}
	m.planInitialized.Inc()
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.conversions,
		m.conversionLatency,
		m.loginFailures,
		m.quizSubmissions,
		m.tokensAwarded,
		m.planInitialized,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer serves /metrics on addr until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}
