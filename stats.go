package mockhttp

import (
	"net/http"
	"time"
)

// TransferStats describes a handled request once its promise settled.
type TransferStats struct {
	request      *http.Request
	response     *http.Response
	transferTime time.Duration
	handlerErr   error
}

// Request returns the request that was handled.
func (s *TransferStats) Request() *http.Request { return s.request }

// Response returns the response, or nil if the promise was rejected.
func (s *TransferStats) Response() *http.Response { return s.response }

// HasResponse reports whether a response was received.
func (s *TransferStats) HasResponse() bool { return s.response != nil }

// TransferTime returns the configured transfer time.
func (s *TransferStats) TransferTime() time.Duration { return s.transferTime }

// HandlerErrorData returns the rejection reason, or nil.
func (s *TransferStats) HandlerErrorData() error { return s.handlerErr }
