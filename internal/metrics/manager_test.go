package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverCounters(t *testing.T) {
	m := NewTestManager()

	m.ExerciseCompleted()
	m.ExerciseCompleted()
	m.ExerciseSkipped()
	m.DayCompleted()
	m.RestCompleted()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterExercisesComplete))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterExercisesSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterDaysComplete))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRestComplete))
}

func TestRequestMetrics(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	h := m.RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/a", "/b", "/missing"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GaugeRequests))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HistRequestDuration, "fitcoach_test_request_duration_seconds"))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fitcoach_test_request")
}

func TestInstrumentRoundTripper(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true}`)
	}))
	defer backend.Close()

	m := NewTestManager()
	client := &http.Client{Transport: m.InstrumentRoundTripper(nil)}
	resp, err := client.Get(backend.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "success"))

	assert.Equal(t, 1, testutil.CollectAndCount(m.HistBackendDuration))
}

func TestNewRegistryCollectors(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}
