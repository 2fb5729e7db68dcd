package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/helpers"
)

// Somewhat arbitrary buffer size for the channel that we use as a queue for incoming request
// information. If the channel is full, the HTTP request handler will *not* block; it will just
// discard the information. Call counts are always accurate.
const incomingRequestChannelBufferSize = 100

// IncomingRequestInfo contains information about an HTTP request that was received by one of
// the harness's own listeners.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
	Context context.Context
}

// RequestCapture records every request that passes through the handler returned by Wrap, so
// that tests can make assertions about what the service under test sent.
type RequestCapture struct {
	description string
	requests    chan IncomingRequestInfo
	counts      map[string]int
	logger      framework.Logger
	lock        sync.Mutex
}

// NewRequestCapture creates a RequestCapture. The description is used in failure messages.
func NewRequestCapture(description string, logger framework.Logger) *RequestCapture {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &RequestCapture{
		description: description,
		requests:    make(chan IncomingRequestInfo, incomingRequestChannelBufferSize),
		counts:      make(map[string]int),
		logger:      logger,
	}
}

// Wrap returns a handler that records each request and then delegates to handler. The request
// body is read in full before the handler sees it, and is replayed to the handler unchanged.
func (c *RequestCapture) Wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				c.logger.Printf("Unexpected error trying to read request body: %s", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body = data
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		incoming := IncomingRequestInfo{
			Headers: r.Header.Clone(),
			Method:  r.Method,
			URL:     *r.URL,
			Body:    body,
			Context: r.Context(),
		}

		c.lock.Lock()
		c.counts[r.URL.Path]++
		c.lock.Unlock()

		if !helpers.NonBlockingSend(c.requests, incoming) {
			c.logger.Printf("Incoming request channel was full for %s", c.description)
		}

		wrappedWriter := wrappedResponseWriter{w: w}
		handler.ServeHTTP(&wrappedWriter, r)

		switch wrappedWriter.status {
		case http.StatusNotFound:
			c.logger.Printf("%s received %s request for unrecognized path %s", c.description, r.Method, r.URL.Path)
		case http.StatusMethodNotAllowed:
			c.logger.Printf("%s received request with unsupported %s method for path %s", c.description,
				r.Method, r.URL.Path)
		}
	})
}

// CallCount returns the number of requests received for the given path since the last Reset.
func (c *RequestCapture) CallCount(path string) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.counts[path]
}

// Reset discards all recorded requests and call counts.
func (c *RequestCapture) Reset() {
	c.lock.Lock()
	c.counts = make(map[string]int)
	c.lock.Unlock()
	helpers.Drain(c.requests)
}

// AwaitRequest waits for the next recorded request.
func (c *RequestCapture) AwaitRequest(timeout time.Duration) (IncomingRequestInfo, error) {
	maybeRequest := helpers.TryReceive(c.requests, timeout)
	if maybeRequest.IsDefined() {
		return maybeRequest.Value(), nil
	}
	return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %s", c.description)
}

// RequireRequest waits for the next recorded request, and causes the test to fail and terminate
// if it timed out.
func (c *RequestCapture) RequireRequest(t helpers.TestContext, timeout time.Duration) IncomingRequestInfo {
	t.Helper()
	return helpers.RequireValueWithMessage(t, c.requests, timeout, "timed out waiting for request to %s",
		c.description)
}

// RequireNoMoreRequests causes the test to fail and terminate if there is another incoming request
// within the timeout.
func (c *RequestCapture) RequireNoMoreRequests(t helpers.TestContext, timeout time.Duration) {
	t.Helper()
	helpers.RequireNoMoreValuesWithMessage(t, c.requests, timeout,
		"did not expect another request to %s, but got one", c.description)
}

// wrappedResponseWriter is a way for us to monitor the status that is written to a ResponseWriter,
// so we can add some debug logging for 404 and 405 statuses.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) { return ww.w.Write(data) }

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}
