package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Roster fetch outcomes.
const (
	FetchOK      = "ok"
	FetchError   = "error"
	FetchStale   = "stale"
	FetchSkipped = "skipped"
)

// Mutation outcomes.
const (
	MutationApplied  = "applied"
	MutationFailed   = "failed"
	MutationSkipped  = "skipped"
	MutationRejected = "rejected"
)

// Recorder owns the console's collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	rosterFetches   *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	outboundLatency *prometheus.HistogramVec
	draftsStaged    prometheus.Counter
}

func New() *Recorder {
	registry := prometheus.NewRegistry()

	rosterFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_console_roster_fetches_total",
		Help: "Roster fetches by outcome",
	}, []string{"outcome"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_console_lop_mutations_total",
		Help: "LOP apply attempts by outcome",
	}, []string{"outcome"})

	outboundLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_console_ledger_request_duration_seconds",
		Help:    "Duration of calls to the leave ledger",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	draftsStaged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_console_drafts_staged_total",
		Help: "LOP values staged by operators",
	})

	registry.MustRegister(rosterFetches, mutations, outboundLatency, draftsStaged)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		rosterFetches:   rosterFetches,
		mutations:       mutations,
		outboundLatency: outboundLatency,
		draftsStaged:    draftsStaged,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

func (r *Recorder) RosterFetch(outcome string) {
	if r == nil {
		return
	}
	r.rosterFetches.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Mutation(outcome string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) DraftStaged() {
	if r == nil {
		return
	}
	r.draftsStaged.Inc()
}

// ObserveOutbound matches customhttp.Observer.
func (r *Recorder) ObserveOutbound(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.outboundLatency.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
