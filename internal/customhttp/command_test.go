package customhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildAppliesMiddlewaresInOrder(t *testing.T) {
	var gotRequestID string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer s.Close()

	var observed []int
	cmd := New(
		WithHTTPClient(s.Client()),
		WithRequestID(),
		WithLogging(),
		WithObserver(func(method string, status int, elapsed time.Duration) {
			require.Equal(t, http.MethodGet, method)
			observed = append(observed, status)
		}),
	).Build()

	req, err := http.NewRequest(http.MethodGet, s.URL+"/users/me", nil)
	require.NoError(t, err)

	resp, err := cmd.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusTeapot, resp.StatusCode)
	require.Len(t, gotRequestID, 36)
	require.Equal(t, []int{http.StatusTeapot}, observed)
}

func TestRequestIDIsPreserved(t *testing.T) {
	var gotRequestID string
	cmd := New(
		WithHTTPClient(httpCommandFunc(func(req *http.Request) (*http.Response, error) {
			gotRequestID = req.Header.Get(HeaderRequestID)
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		})),
		WithRequestID(),
	).Build()

	req, err := http.NewRequest(http.MethodGet, "http://ledger.local/", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, "fixed")

	_, err = cmd.Do(req)
	require.NoError(t, err)
	require.Equal(t, "fixed", gotRequestID)
}
