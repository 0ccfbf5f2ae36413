package mockhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Options configures a single handled request.
type Options struct {
	// Delay blocks the calling goroutine before the request is matched.
	Delay time.Duration

	// OnHeaders is called with the response before it is returned. If it
	// returns an error, the promise is rejected with a *RequestError.
	OnHeaders func(resp *http.Response) error

	// OnStats receives the transfer statistics once the promise settled.
	OnStats func(stats *TransferStats)

	// Sink receives the body of a successful response.
	Sink io.Writer

	// SinkPath names a file that receives the body of a successful response.
	// The file is created or truncated.
	SinkPath string

	// TransferTime is reported in the TransferStats.
	TransferTime time.Duration

	// Extra holds options this package does not recognize. They are kept
	// so that they can be inspected with LastOptions.
	Extra map[string]interface{}
}

// OptionsFromMap converts string-keyed options to Options.
//
// Recognized keys are delay (milliseconds), on_headers, on_stats, sink (an
// io.Writer or a file path) and transfer_time (seconds). The camelCase
// spellings onHeaders, onStats and transferTime are accepted too. Other keys
// are stored in Extra. ErrInvalidConfig is returned if a value has the wrong
// type.
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	var opts Options
	for k, v := range m {
		switch k {
		case "delay":
			if ms, ok := number(v); ok {
				opts.Delay = time.Duration(ms * float64(time.Millisecond))
			}
		case "transfer_time", "transferTime":
			s, ok := number(v)
			if !ok {
				return Options{}, fmt.Errorf("%s must be numeric, got %T: %w", k, v, ErrInvalidConfig)
			}
			opts.TransferTime = time.Duration(s * float64(time.Second))
		case "on_headers", "onHeaders":
			switch fn := v.(type) {
			case func(*http.Response) error:
				opts.OnHeaders = fn
			case func(*http.Response):
				opts.OnHeaders = func(resp *http.Response) error { fn(resp); return nil }
			default:
				return Options{}, fmt.Errorf("%s must be callable, got %T: %w", k, v, ErrInvalidConfig)
			}
		case "on_stats", "onStats":
			fn, ok := v.(func(*TransferStats))
			if !ok {
				return Options{}, fmt.Errorf("%s must be callable, got %T: %w", k, v, ErrInvalidConfig)
			}
			opts.OnStats = fn
		case "sink":
			switch s := v.(type) {
			case string:
				opts.SinkPath = s
			case io.Writer:
				opts.Sink = s
			default:
				return Options{}, fmt.Errorf("sink must be a writer or a path, got %T: %w", v, ErrInvalidConfig)
			}
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]interface{})
			}
			opts.Extra[k] = v
		}
	}
	return opts, nil
}

// number returns v as a float64 if it is a Go number.
func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

type optionsKey struct{}

// WithOptions returns a context carrying opts. Requests sent through a
// Handler used as a transport are handled with the options of their context.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// OptionsFromContext returns the options stored in ctx by WithOptions, or the
// zero Options.
func OptionsFromContext(ctx context.Context) Options {
	opts, _ := ctx.Value(optionsKey{}).(Options)
	return opts
}
