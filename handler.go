package mockhttp

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// An Expectation pairs a request pattern with the outcome returned when an
// actual request matches it.
type Expectation struct {
	Request *Request
	Outcome Outcome
}

// New creates a Handler with the given expectations appended in order.
func New(expectations ...Expectation) (*Handler, error) {
	h := &Handler{}
	for i, e := range expectations {
		if err := h.Append(e.Request, e.Outcome); err != nil {
			return nil, fmt.Errorf("expectation %d: %w", i, err)
		}
	}
	return h, nil
}

// Handler replaces the network for an HTTP client. Each handled request is
// matched against the registered expectations and consumes the one it
// matched.
//
// Expectations are searched from the most recently appended to the oldest,
// so a later, more specific expectation shadows an earlier generic one.
//
// A Handler is safe for concurrent use. Its exported fields must not be
// changed while requests are handled.
type Handler struct {
	// OnFulfilled is called with every response once its promise settled.
	OnFulfilled func(resp *http.Response)

	// OnRejected is called with every rejection reason.
	OnRejected func(err error)

	// Logger receives debug information about matching. If nil, nothing is
	// logged.
	Logger *zap.Logger

	// Metrics, if set, counts handled requests.
	Metrics *Metrics

	mu          sync.Mutex
	queue       []Expectation
	lastRequest *http.Request
	lastOptions Options
}

var _ http.RoundTripper = (*Handler)(nil)

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// Append registers an expectation. ErrTypeMismatch is returned if pattern is
// nil or outcome was not created by Respond, Fail, Defer or Generate with a
// non-nil value.
func (h *Handler) Append(pattern *Request, outcome Outcome) error {
	if pattern == nil {
		return fmt.Errorf("nil request pattern: %w", ErrTypeMismatch)
	}
	if !validOutcome(outcome) {
		return fmt.Errorf("append %s %s with %T: %w", pattern.Method, pattern.URL, outcome, ErrTypeMismatch)
	}

	h.mu.Lock()
	h.queue = append(h.queue, Expectation{Request: pattern, Outcome: outcome})
	n := len(h.queue)
	h.mu.Unlock()

	h.Metrics.pending(n)
	h.logger().Debug("expectation appended",
		zap.String("method", pattern.Method),
		zap.String("url", pattern.URL),
		zap.Int("pending", n))
	return nil
}

// Load appends the expectations stored in a fixture file.
func (h *Handler) Load(filename string, filters ...Filter) error {
	exps, err := LoadFile(filename, filters...)
	if err != nil {
		return err
	}
	for i, e := range exps {
		if err := h.Append(e.Request, e.Outcome); err != nil {
			return fmt.Errorf("expectation %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of expectations not yet matched.
func (h *Handler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Reset removes all expectations. Requests already handled are not affected.
func (h *Handler) Reset() {
	h.mu.Lock()
	h.queue = nil
	h.mu.Unlock()
	h.Metrics.pending(0)
}

// LastRequest returns the most recently handled request, even if it did not
// match any expectation.
func (h *Handler) LastRequest() *http.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastRequest
}

// LastOptions returns the options of the most recently handled request.
func (h *Handler) LastOptions() Options {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastOptions
}

// Handle matches req against the registered expectations and returns a
// promise for the outcome of the matched expectation.
//
// ErrEmptyQueue, ErrNoMatch and ErrTypeMismatch are returned directly. Errors
// registered with Fail, and errors returned by the OnHeaders hook, reject the
// returned promise instead.
//
// The returned promise settles only after the OnStats hook, the handler
// callbacks and the sink have run.
func (h *Handler) Handle(req *http.Request, opts Options) (*Promise, error) {
	if h.Len() == 0 {
		h.Metrics.call(resultEmptyQueue)
		return nil, ErrEmptyQueue
	}

	if opts.Delay > 0 {
		time.Sleep(opts.Delay)
	}

	body, err := readRequestBody(req)
	if err != nil {
		return nil, err
	}

	outcome, err := h.take(call{req: req, body: body}, opts)
	if err != nil {
		return nil, err
	}

	result, err := resolve(outcome, req, opts)
	if err != nil {
		h.Metrics.call(resultInvalid)
		return nil, err
	}

	p := h.onHeaders(result, req, opts)
	return p.Then(
		func(resp *http.Response) (*http.Response, error) {
			return h.fulfilled(req, resp, opts)
		},
		func(reason error) (*http.Response, error) {
			return h.rejected(req, reason, opts)
		},
	), nil
}

// take records the call and removes the newest suitable expectation.
func (h *Handler) take(c call, opts Options) (Outcome, error) {
	log := h.logger()

	h.mu.Lock()
	h.lastRequest = c.req
	h.lastOptions = opts
	if len(h.queue) == 0 {
		h.mu.Unlock()
		h.Metrics.call(resultEmptyQueue)
		return nil, ErrEmptyQueue
	}
	for i := len(h.queue) - 1; i >= 0; i-- {
		e := h.queue[i]
		if !suitable(e.Request, c) {
			if ce := log.Check(zap.DebugLevel, "expectation not suitable"); ce != nil {
				ce.Write(
					zap.Int("index", i),
					zap.String("method", e.Request.Method),
					zap.String("url", e.Request.URL),
					zap.String("header_diff", headerDiff(e.Request.Headers, c.req.Header)))
			}
			continue
		}
		h.queue = append(h.queue[:i], h.queue[i+1:]...)
		n := len(h.queue)
		h.mu.Unlock()

		h.Metrics.pending(n)
		log.Debug("expectation matched",
			zap.Int("index", i),
			zap.String("method", c.req.Method),
			zap.String("url", c.req.URL.String()),
			zap.Int("pending", n))
		return e.Outcome, nil
	}
	h.mu.Unlock()

	h.Metrics.call(resultNoMatch)
	log.Warn("no suitable expectation",
		zap.String("method", c.req.Method),
		zap.String("url", c.req.URL.String()))
	return nil, newNoMatchError(c.req, c.body)
}

// onHeaders runs the OnHeaders hook on the response about to be returned.
// A pending promise gets the hook as its first continuation.
func (h *Handler) onHeaders(result Result, req *http.Request, opts Options) *Promise {
	if opts.OnHeaders == nil {
		return result.promise()
	}
	hook := func(resp *http.Response) (*http.Response, error) {
		if err := opts.OnHeaders(resp); err != nil {
			return nil, &RequestError{Message: headersEventMessage, Request: req, Response: resp, Err: err}
		}
		return resp, nil
	}
	switch r := result.(type) {
	case responseOutcome:
		if _, err := hook(r.resp); err != nil {
			return Rejected(err)
		}
		return Fulfilled(r.resp)
	case deferredOutcome:
		return r.p.Then(hook, nil)
	}
	return result.promise()
}

func (h *Handler) fulfilled(req *http.Request, resp *http.Response, opts Options) (*http.Response, error) {
	h.Metrics.call(resultFulfilled)
	if opts.OnStats != nil {
		opts.OnStats(&TransferStats{request: req, response: resp, transferTime: opts.TransferTime})
	}
	if h.OnFulfilled != nil {
		h.OnFulfilled(resp)
	}
	if resp == nil {
		return nil, nil
	}
	n, err := writeSink(resp, opts)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		h.logger().Debug("response body written to sink", zap.Int("bytes", n))
	}
	return resp, nil
}

func (h *Handler) rejected(req *http.Request, reason error, opts Options) (*http.Response, error) {
	h.Metrics.call(resultRejected)
	if opts.OnStats != nil {
		opts.OnStats(&TransferStats{request: req, transferTime: opts.TransferTime, handlerErr: reason})
	}
	if h.OnRejected != nil {
		h.OnRejected(reason)
	}
	return nil, reason
}

// RoundTrip implements http.RoundTripper. The request is handled with the
// options stored in its context by WithOptions, and RoundTrip waits for the
// outcome.
func (h *Handler) RoundTrip(req *http.Request) (*http.Response, error) {
	p, err := h.Handle(req, OptionsFromContext(req.Context()))
	if err != nil {
		return nil, err
	}
	resp, err := p.Wait()
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%s %s: promise fulfilled without a response", req.Method, req.URL)
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}

// Client returns an HTTP client that sends all requests to h.
func (h *Handler) Client() *http.Client {
	return &http.Client{Transport: h}
}
