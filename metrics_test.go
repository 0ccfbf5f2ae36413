package mockhttp_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/akupila/mockhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHandler(t)
	h.Metrics = mockhttp.NewMetrics(reg)

	pattern := mockhttp.NewRequest(http.MethodGet, "https://example.com")
	if err := h.Append(pattern, mockhttp.Respond(newResponse(200, ""))); err != nil {
		t.Fatal(err)
	}
	if err := h.Append(pattern, mockhttp.Fail(errors.New("a"))); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(h.Metrics.Pending); got != 2 {
		t.Errorf("Pending = %v, want 2", got)
	}

	for i := 0; i < 2; i++ {
		p, err := h.Handle(mustRequest(t, http.MethodGet, "https://example.com", ""), mockhttp.Options{})
		if err != nil {
			t.Fatal(err)
		}
		p.Wait() // nolint: errcheck
	}
	if _, err := h.Handle(mustRequest(t, http.MethodGet, "https://example.com", ""), mockhttp.Options{}); !errors.Is(err, mockhttp.ErrEmptyQueue) {
		t.Fatalf("Handle() error = %v, want %v", err, mockhttp.ErrEmptyQueue)
	}

	for result, want := range map[string]float64{
		"fulfilled":   1,
		"rejected":    1,
		"empty_queue": 1,
		"no_match":    0,
	} {
		if got := testutil.ToFloat64(h.Metrics.Calls.WithLabelValues(result)); got != want {
			t.Errorf("Calls{result=%q} = %v, want %v", result, got, want)
		}
	}
	if got := testutil.ToFloat64(h.Metrics.Pending); got != 0 {
		t.Errorf("Pending = %v, want 0", got)
	}
}

func TestMetrics_Nil(t *testing.T) {
	h := newHandler(t, mockhttp.Expectation{
		Request: mockhttp.NewRequest(http.MethodGet, "https://example.com"),
		Outcome: mockhttp.Respond(newResponse(200, "")),
	})
	h.Reset()
	if _, err := h.Handle(mustRequest(t, http.MethodGet, "https://example.com", ""), mockhttp.Options{}); !errors.Is(err, mockhttp.ErrEmptyQueue) {
		t.Errorf("Handle() error = %v, want %v", err, mockhttp.ErrEmptyQueue)
	}
}
