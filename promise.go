package mockhttp

import (
	"net/http"
	"sync"
)

// A Promise is a response that may not be available yet.
//
// A Promise settles exactly once, either fulfilled with a response or rejected
// with an error. Continuations attached with Then run on the goroutine that
// settles the promise, or immediately if it already settled.
//
// The zero value is a pending promise.
type Promise struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	resp      *http.Response
	err       error
	callbacks []func()
}

// NewPromise returns a pending promise.
func NewPromise() *Promise {
	return &Promise{}
}

// doneLocked returns the channel closed on settlement. p.mu must be held.
func (p *Promise) doneLocked() chan struct{} {
	if p.done == nil {
		p.done = make(chan struct{})
	}
	return p.done
}

// Fulfilled returns a promise already fulfilled with resp.
func Fulfilled(resp *http.Response) *Promise {
	p := NewPromise()
	p.Resolve(resp)
	return p
}

// Rejected returns a promise already rejected with err.
func Rejected(err error) *Promise {
	p := NewPromise()
	p.Reject(err)
	return p
}

// Resolve fulfills the promise with resp. It has no effect if the promise
// already settled.
func (p *Promise) Resolve(resp *http.Response) { p.settle(resp, nil) }

// Reject rejects the promise with err. It has no effect if the promise
// already settled.
func (p *Promise) Reject(err error) { p.settle(nil, err) }

func (p *Promise) settle(resp *http.Response, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.resp, p.err = resp, err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.doneLocked())
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Then returns a promise settled by the continuation matching the outcome of
// p. A nil continuation passes the outcome through unchanged.
func (p *Promise) Then(
	onFulfilled func(*http.Response) (*http.Response, error),
	onRejected func(error) (*http.Response, error),
) *Promise {
	next := NewPromise()
	run := func() {
		resp, err := p.resp, p.err
		switch {
		case err == nil && onFulfilled != nil:
			resp, err = onFulfilled(resp)
		case err != nil && onRejected != nil:
			resp, err = onRejected(err)
		}
		next.settle(resp, err)
	}

	p.mu.Lock()
	if !p.settled {
		p.callbacks = append(p.callbacks, run)
		p.mu.Unlock()
		return next
	}
	p.mu.Unlock()
	run()
	return next
}

// Done returns a channel that is closed once the promise settled.
func (p *Promise) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneLocked()
}

// Wait blocks until the promise settled and returns its outcome. There is no
// timeout.
func (p *Promise) Wait() (*http.Response, error) {
	<-p.Done()
	return p.resp, p.err
}

// Settled reports whether the promise was fulfilled or rejected.
func (p *Promise) Settled() bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}
