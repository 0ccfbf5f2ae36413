package mockhttp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// A Request is the pattern an actual request is matched against.
//
// Method, URL, header values and Body are compared case-insensitively. When a
// value is not equal to the actual one it is tried as a regular expression
// that must match the whole actual value. Headers missing from the pattern are
// not checked.
type Request struct {
	Method  string      `yaml:"method"`
	URL     string      `yaml:"url"`
	Headers http.Header `yaml:"headers,omitempty"`
	Body    string      `yaml:"body,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Header values may be written
// as a single string or as a list.
func (r *Request) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Method  string      `yaml:"method"`
		URL     string      `yaml:"url"`
		Headers yamlHeaders `yaml:"headers"`
		Body    string      `yaml:"body"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*r = Request{Method: raw.Method, URL: raw.URL, Headers: raw.Headers.header(), Body: raw.Body}
	return nil
}

// NewRequest returns a pattern for method and url with no headers and an
// empty body.
func NewRequest(method, url string) *Request {
	return &Request{Method: method, URL: url}
}

// RequestFrom returns a pattern that is suitable for req. The body of req is
// read and replaced so that req can still be sent.
func RequestFrom(req *http.Request) (*Request, error) {
	body, err := readRequestBody(req)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header.Clone(),
		Body:    body,
	}, nil
}

// A Response is a canned response stored in a fixture file.
type Response struct {
	StatusCode int         `yaml:"status_code"`
	Headers    http.Header `yaml:"headers,omitempty"`
	Body       string      `yaml:"body,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Header values may be written
// as a single string or as a list.
func (r *Response) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		StatusCode int         `yaml:"status_code"`
		Headers    yamlHeaders `yaml:"headers"`
		Body       string      `yaml:"body"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*r = Response{StatusCode: raw.StatusCode, Headers: raw.Headers.header(), Body: raw.Body}
	return nil
}

// yamlHeaders decodes both the flattened layout (Accept: text/html) and the
// list layout (Accept: [text/html]).
type yamlHeaders map[string]yamlValues

type yamlValues []string

func (v *yamlValues) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*v = list
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*v = yamlValues{s}
	return nil
}

func (h yamlHeaders) header() http.Header {
	if len(h) == 0 {
		return nil
	}
	out := make(http.Header, len(h))
	for k, vv := range h {
		if len(vv) == 0 {
			out[http.CanonicalHeaderKey(k)] = []string{}
			continue
		}
		for _, v := range vv {
			out.Add(k, v)
		}
	}
	return out
}

// HTTPResponse builds a new *http.Response from r.
func (r *Response) HTTPResponse() *http.Response {
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        canonicalHeader(r.Headers),
		Body:          io.NopCloser(strings.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
	}
}

// An Entry is a single expectation stored in a fixture file. Either Response
// or Error should be set; Error takes precedence.
type Entry struct {
	Request  *Request  `yaml:"request"`
	Response *Response `yaml:"response,omitempty"`
	Error    string    `yaml:"error,omitempty"`
}

// Expectation returns the expectation described by e.
func (e Entry) Expectation() (Expectation, error) {
	if e.Request == nil {
		return Expectation{}, fmt.Errorf("entry has no request: %w", ErrTypeMismatch)
	}
	switch {
	case e.Error != "":
		return Expectation{Request: e.Request, Outcome: Fail(errors.New(e.Error))}, nil
	case e.Response != nil:
		resp := e.Response
		// Responses are built per call so that the body can be read by each
		// matched request independently.
		return Expectation{Request: e.Request, Outcome: Generate(func(*http.Request, Options) Result {
			return Respond(resp.HTTPResponse())
		})}, nil
	}
	return Expectation{}, fmt.Errorf("entry for %s %s has neither response nor error: %w", e.Request.Method, e.Request.URL, ErrTypeMismatch)
}

// A Filter modifies an entry after it is read from a fixture file.
//
// Filters are applied in order before the entry becomes an expectation, with
// the primary purpose being to relax patterns recorded from real traffic.
type Filter func(entry *Entry)

// RemoveRequestHeader removes a header with the given name from the request
// pattern. The name of the header is case-insensitive.
func RemoveRequestHeader(name string) Filter {
	return func(e *Entry) {
		if e.Request != nil {
			removeHeader(e.Request.Headers, name)
		}
	}
}

// RemoveResponseHeader removes a header with the given name from the
// response. The name of the header is case-insensitive.
func RemoveResponseHeader(name string) Filter {
	return func(e *Entry) {
		if e.Response != nil {
			removeHeader(e.Response.Headers, name)
		}
	}
}

// LoadFile reads expectations from a fixture file. A .yml extension is added
// if not set.
//
// The file holds one or more YAML documents separated by ---, each describing
// an Entry.
func LoadFile(filename string, filters ...Filter) ([]Expectation, error) {
	if !strings.HasSuffix(filename, ".yml") {
		filename += ".yml"
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	exps, err := ParseFixtures(b, filters...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return exps, nil
}

// ParseFixtures decodes expectations from YAML documents.
func ParseFixtures(b []byte, filters ...Filter) ([]Expectation, error) {
	var exps []Expectation
	dec := yaml.NewDecoder(bytes.NewReader(b))
	for i := 0; ; i++ {
		var e Entry
		err := dec.Decode(&e)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unmarshal entry %d: %w", i, err)
		}
		if e.Request == nil && e.Response == nil && e.Error == "" {
			// Empty document, e.g. a trailing separator.
			continue
		}
		for _, apply := range filters {
			apply(&e)
		}
		exp, err := e.Expectation()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// removeHeader deletes every key of h equal to name under case folding, so
// headers built by hand with non-canonical keys are removed too.
func removeHeader(h http.Header, name string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			delete(h, k)
		}
	}
}

func canonicalHeader(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for k, vv := range in {
		for _, v := range vv {
			out.Add(k, v)
		}
	}
	return out
}

func readRequestBody(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return "", nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, req.Body); err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return "", fmt.Errorf("close request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	return buf.String(), nil
}
