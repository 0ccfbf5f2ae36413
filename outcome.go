package mockhttp

import (
	"fmt"
	"net/http"
)

// An Outcome is what a matched expectation produces. Use Respond, Fail, Defer
// or Generate to create one.
type Outcome interface {
	valid() bool
}

// A Result is an Outcome that is not a generator. Generators return a Result,
// so they cannot be chained.
type Result interface {
	Outcome
	promise() *Promise
}

// GeneratorFunc produces the result for a matched request at call time.
type GeneratorFunc func(req *http.Request, opts Options) Result

type responseOutcome struct{ resp *http.Response }

type errorOutcome struct{ err error }

type deferredOutcome struct{ p *Promise }

type generatorOutcome struct{ fn GeneratorFunc }

// Respond returns an outcome fulfilled with resp.
func Respond(resp *http.Response) Result { return responseOutcome{resp} }

// Fail returns an outcome rejected with err. The error reaches the caller
// through the promise, not as a return value of Handle.
func Fail(err error) Result { return errorOutcome{err} }

// Defer returns an outcome that settles when p does.
func Defer(p *Promise) Result { return deferredOutcome{p} }

// Generate returns an outcome computed by fn when the expectation matches.
func Generate(fn GeneratorFunc) Outcome { return generatorOutcome{fn} }

func (o responseOutcome) valid() bool      { return o.resp != nil }
func (o responseOutcome) promise() *Promise { return Fulfilled(o.resp) }

func (o errorOutcome) valid() bool      { return o.err != nil }
func (o errorOutcome) promise() *Promise { return Rejected(o.err) }

func (o deferredOutcome) valid() bool      { return o.p != nil }
func (o deferredOutcome) promise() *Promise { return o.p }

func (o generatorOutcome) valid() bool { return o.fn != nil }

func validOutcome(o Outcome) bool {
	return o != nil && o.valid()
}

// resolve invokes a generator outcome and returns the result it produced.
// Other outcomes are returned as is.
func resolve(outcome Outcome, req *http.Request, opts Options) (Result, error) {
	if g, ok := outcome.(generatorOutcome); ok {
		r := g.fn(req, opts)
		if !validOutcome(r) {
			return nil, fmt.Errorf("generator for %s %s returned %T: %w", req.Method, req.URL, r, ErrTypeMismatch)
		}
		return r, nil
	}
	r, ok := outcome.(Result)
	if !ok || !validOutcome(r) {
		return nil, fmt.Errorf("resolve %T: %w", outcome, ErrTypeMismatch)
	}
	return r, nil
}
