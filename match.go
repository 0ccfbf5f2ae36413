package mockhttp

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
)

// call is an actual request with its body read once for matching.
type call struct {
	req  *http.Request
	body string
}

// suitable reports whether pattern accepts the actual request.
func suitable(pattern *Request, c call) bool {
	return suitableString(pattern.Method, c.req.Method) &&
		suitableString(decodeURI(pattern.URL), decodeURI(c.req.URL.String())) &&
		headerDiff(pattern.Headers, c.req.Header) == "" &&
		suitableString(pattern.Body, c.body)
}

// suitableString compares expected and actual case-insensitively. If they
// differ, expected is used as a regular expression that must match all of
// actual. An invalid expression never matches.
func suitableString(expected, actual string) bool {
	if strings.EqualFold(expected, actual) {
		return true
	}
	re := compilePattern(expected)
	return re != nil && re.MatchString(actual)
}

// maxPatterns bounds the number of compiled expressions kept in patterns.
const maxPatterns = 512

var patterns = struct {
	sync.Mutex
	m map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

// compilePattern returns the anchored, case-insensitive expression for expr,
// or nil if expr does not compile. Invalid expressions are not cached, and
// new ones are not cached once the cache is full.
func compilePattern(expr string) *regexp.Regexp {
	patterns.Lock()
	re, ok := patterns.m[expr]
	patterns.Unlock()
	if ok {
		return re
	}

	re, err := regexp.Compile(`(?i)^(?:` + expr + `)$`)
	if err != nil {
		return nil
	}
	patterns.Lock()
	if len(patterns.m) < maxPatterns {
		patterns.m[expr] = re
	}
	patterns.Unlock()
	return re
}

func decodeURI(s string) string {
	d, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return d
}

// headerDiff returns the structural difference between the expected headers
// and the matching part of the actual headers. It is empty if every expected
// header exists in actual with suitable values; other actual headers and
// trailing values are ignored.
func headerDiff(expected, actual http.Header) string {
	if len(expected) == 0 {
		return ""
	}
	projected := make(http.Header, len(expected))
	for name, want := range expected {
		got := actual.Values(name)
		if got == nil {
			continue
		}
		if len(want) == 0 {
			projected[name] = want
			continue
		}
		if len(got) > len(want) {
			got = got[:len(want)]
		}
		vals := make([]string, len(got))
		for i, v := range got {
			if suitableString(want[i], v) {
				v = want[i]
			}
			vals[i] = v
		}
		projected[name] = vals
	}
	return cmp.Diff(expected, projected)
}
