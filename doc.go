// Package mockhttp provides an HTTP transport that answers requests from a set
// of registered expectations.
//
// The primary use-case is for tests where code under test sends HTTP requests
// through an http.Client and the test decides, without reaching out to the
// network, which response or error each request gets. Every expectation pairs
// a request pattern with an outcome and is consumed by the first request it
// matches. Patterns are compared case-insensitively and fall back to regular
// expressions, so a pattern may be exact or constraining.
//
// Per-request options simulate latency, inspect headers, capture transfer
// statistics and write response bodies to a sink.
package mockhttp
