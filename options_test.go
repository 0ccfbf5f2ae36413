package mockhttp_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/akupila/mockhttp"
	"github.com/google/go-cmp/cmp"
)

func TestOptionsFromMap(t *testing.T) {
	var buf bytes.Buffer
	opts, err := mockhttp.OptionsFromMap(map[string]interface{}{
		"delay":         5,
		"transfer_time": 0.4,
		"sink":          &buf,
		"on_headers":    func(*http.Response) {},
		"on_stats":      func(*mockhttp.TransferStats) {},
		"http_errors":   true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if opts.Delay != 5*time.Millisecond {
		t.Errorf("Delay = %s, want 5ms", opts.Delay)
	}
	if opts.TransferTime.Seconds() != 0.4 {
		t.Errorf("TransferTime = %s, want 400ms", opts.TransferTime)
	}
	if opts.Sink != &buf {
		t.Errorf("Sink is not the buffer")
	}
	if opts.OnHeaders == nil || opts.OnStats == nil {
		t.Errorf("Hooks were not set")
	}
	if err := opts.OnHeaders(&http.Response{}); err != nil {
		t.Errorf("OnHeaders() = %v, want nil", err)
	}
	if diff := cmp.Diff(opts.Extra, map[string]interface{}{"http_errors": true}); diff != "" {
		t.Errorf("Extra does not match (-got, +want)\n%s", diff)
	}
}

func TestOptionsFromMap_SinkPath(t *testing.T) {
	opts, err := mockhttp.OptionsFromMap(map[string]interface{}{"sink": "/tmp/out"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.SinkPath != "/tmp/out" || opts.Sink != nil {
		t.Errorf("SinkPath = %q, Sink = %v", opts.SinkPath, opts.Sink)
	}
}

func TestOptionsFromMap_NonNumericDelayIgnored(t *testing.T) {
	opts, err := mockhttp.OptionsFromMap(map[string]interface{}{"delay": "soon"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Delay != 0 {
		t.Errorf("Delay = %s, want 0", opts.Delay)
	}
}

func TestOptionsFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]interface{}
	}{
		{"on_headers", map[string]interface{}{"on_headers": "error!"}},
		{"on_stats", map[string]interface{}{"on_stats": 1}},
		{"sink", map[string]interface{}{"sink": 42}},
		{"transfer_time", map[string]interface{}{"transfer_time": "fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mockhttp.OptionsFromMap(tt.opts)
			if !errors.Is(err, mockhttp.ErrInvalidConfig) {
				t.Errorf("OptionsFromMap() error = %v, want %v", err, mockhttp.ErrInvalidConfig)
			}
		})
	}
}

func TestOptionsContext(t *testing.T) {
	if got := mockhttp.OptionsFromContext(context.Background()); got.Delay != 0 || got.Extra != nil {
		t.Errorf("OptionsFromContext() of empty context = %+v, want zero", got)
	}
	ctx := mockhttp.WithOptions(context.Background(), mockhttp.Options{Delay: time.Second})
	if got := mockhttp.OptionsFromContext(ctx); got.Delay != time.Second {
		t.Errorf("Delay = %s, want 1s", got.Delay)
	}
}

func TestOptionsFromMap_CamelCase(t *testing.T) {
	opts, err := mockhttp.OptionsFromMap(map[string]interface{}{
		"transferTime": 0.4,
		"onHeaders":    func(*http.Response) error { return nil },
		"onStats":      func(*mockhttp.TransferStats) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	if opts.TransferTime != 400*time.Millisecond {
		t.Errorf("TransferTime = %s, want 400ms", opts.TransferTime)
	}
	if opts.OnHeaders == nil || opts.OnStats == nil {
		t.Errorf("Hooks were not set")
	}
	if len(opts.Extra) != 0 {
		t.Errorf("Extra = %v, want empty", opts.Extra)
	}

	if _, err := mockhttp.OptionsFromMap(map[string]interface{}{"onHeaders": "error!"}); !errors.Is(err, mockhttp.ErrInvalidConfig) {
		t.Errorf("OptionsFromMap() error = %v, want %v", err, mockhttp.ErrInvalidConfig)
	}
}
