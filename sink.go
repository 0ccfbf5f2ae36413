package mockhttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
)

// writeSink copies the body of resp to the sinks configured in opts. The body
// is buffered and replaced so that the caller can still read it.
func writeSink(resp *http.Response, opts Options) (int, error) {
	if opts.Sink == nil && opts.SinkPath == "" {
		return 0, nil
	}
	var contents []byte
	if resp.Body != nil {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("read response body: %w", err)
		}
		if err := resp.Body.Close(); err != nil {
			return 0, fmt.Errorf("close response body: %w", err)
		}
		contents = b
		resp.Body = io.NopCloser(bytes.NewReader(b))
	}

	if opts.Sink != nil {
		if _, err := io.Copy(opts.Sink, bytes.NewReader(contents)); err != nil {
			return 0, fmt.Errorf("write sink: %w", err)
		}
	}
	if opts.SinkPath != "" {
		if err := os.WriteFile(opts.SinkPath, contents, 0644); err != nil {
			return 0, fmt.Errorf("write sink %s: %w", opts.SinkPath, err)
		}
	}
	return len(contents), nil
}
