package mockhttp

import (
	"errors"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v2"
)

var (
	// ErrEmptyQueue is returned when a request is handled while no
	// expectations are registered.
	ErrEmptyQueue = errors.New("mock queue is empty")

	// ErrInvalidConfig is returned when a call option has an unusable value,
	// such as a hook that is not a function.
	ErrInvalidConfig = errors.New("invalid call option")

	// ErrTypeMismatch is returned when an outcome is not a response, error,
	// promise or generator.
	ErrTypeMismatch = errors.New("outcome must be a response, error, promise or generator")

	// ErrNoMatch is returned when no registered expectation is suitable for a
	// request. The concrete error is a *NoMatchError.
	ErrNoMatch = errors.New("no suitable response")
)

// NoMatchError is returned when expectations are registered but none of them
// is suitable for the current request.
//
// Because the error is returned from the transport, it may be wrapped.
type NoMatchError struct {
	Request *http.Request

	// Fields holds the diagnostic dump of the request: method, uri, body and,
	// when not empty, protocol_version and headers.
	Fields yaml.MapSlice
}

func newNoMatchError(req *http.Request, body string) *NoMatchError {
	fields := yaml.MapSlice{
		{Key: "method", Value: req.Method},
		{Key: "uri", Value: req.URL.String()},
		{Key: "body", Value: body},
	}
	if v := protocolVersion(req); v != "" {
		fields = append(fields, yaml.MapItem{Key: "protocol_version", Value: v})
	}
	if len(req.Header) > 0 {
		fields = append(fields, yaml.MapItem{Key: "headers", Value: map[string][]string(req.Header)})
	}
	return &NoMatchError{Request: req, Fields: fields}
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	b, err := yaml.Marshal(e.Fields)
	if err != nil {
		return fmt.Sprintf("can't find suitable response for request %s %s", e.Request.Method, e.Request.URL)
	}
	return fmt.Sprintf("can't find suitable response for request [\n%s]", b)
}

// Is reports whether target is ErrNoMatch.
func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

// headersEventMessage is the message of the RequestError produced when the
// OnHeaders hook fails.
const headersEventMessage = "An error was encountered during the on_headers event"

// RequestError rejects a promise when a hook fails after a response was
// produced. The response that was about to be returned is kept.
type RequestError struct {
	Message  string
	Request  *http.Request
	Response *http.Response
	Err      error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the error raised by the hook.
func (e *RequestError) Unwrap() error { return e.Err }

func protocolVersion(req *http.Request) string {
	if req.ProtoMajor == 0 && req.ProtoMinor == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%d", req.ProtoMajor, req.ProtoMinor)
}
