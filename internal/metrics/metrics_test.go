package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.RosterFetch(FetchOK)
	r.RosterFetch(FetchStale)
	r.RosterFetch(FetchStale)
	r.Mutation(MutationApplied)
	r.ObserveOutbound(http.MethodGet, http.StatusOK, 20*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(r.rosterFetches.WithLabelValues(FetchStale)))
	require.Equal(t, float64(1), testutil.ToFloat64(r.mutations.WithLabelValues(MutationApplied)))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "leave_console_ledger_request_duration_seconds")
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RosterFetch(FetchOK)
	r.Mutation(MutationFailed)
	r.DraftStaged()
	r.ObserveOutbound(http.MethodPost, 0, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
