package harness

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/helpers"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCaptureDelegatesToHandler(t *testing.T) {
	c := NewRequestCapture("mock", framework.NullLogger())
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(204))

	rr := httptest.NewRecorder()
	r, _ := http.NewRequest("POST", "http://localhost/auth", bytes.NewBufferString("token=abc"))
	c.Wrap(handler).ServeHTTP(rr, r)
	assert.Equal(t, 204, rr.Code)

	received := <-requests
	assert.Equal(t, "/auth", received.Request.URL.Path)
	assert.Equal(t, []byte("token=abc"), received.Body)
}

func TestRequestCaptureRecordsRequestInfo(t *testing.T) {
	c := NewRequestCapture("mock", framework.NullLogger())
	h := c.Wrap(httphelpers.HandlerWithStatus(200))

	_, err := c.AwaitRequest(time.Millisecond * 50)
	assert.Error(t, err)

	r1, _ := http.NewRequest("GET", "http://localhost/a", nil)
	r1.Header.Add("header1", "value1")
	h.ServeHTTP(httptest.NewRecorder(), r1)
	req1, err := c.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "GET", req1.Method)
	assert.Equal(t, "/a", req1.URL.Path)
	assert.Len(t, req1.Body, 0)
	assert.Equal(t, "value1", req1.Headers.Get("header1"))

	r2, _ := http.NewRequest("POST", "http://localhost/b", bytes.NewBufferString("content"))
	h.ServeHTTP(httptest.NewRecorder(), r2)
	req2, err := c.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "POST", req2.Method)
	assert.Equal(t, []byte("content"), req2.Body)
}

func TestRequestCaptureReplaysBodyToHandler(t *testing.T) {
	c := NewRequestCapture("mock", nil)
	var seen []byte
	h := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = io.ReadAll(r.Body)
	}))
	r, _ := http.NewRequest("POST", "http://localhost/x", bytes.NewBufferString("payload"))
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, []byte("payload"), seen)
}

func TestRequestCaptureCallCountsAndReset(t *testing.T) {
	c := NewRequestCapture("mock", nil)
	h := c.Wrap(httphelpers.HandlerWithStatus(200))
	for _, path := range []string{"/auth", "/auth", "/doAction", "/missing"} {
		r, _ := http.NewRequest("POST", "http://localhost"+path, nil)
		h.ServeHTTP(httptest.NewRecorder(), r)
	}
	assert.Equal(t, 2, c.CallCount("/auth"))
	assert.Equal(t, 1, c.CallCount("/doAction"))
	assert.Equal(t, 1, c.CallCount("/missing"))
	assert.Equal(t, 0, c.CallCount("/other"))

	c.Reset()
	assert.Equal(t, 0, c.CallCount("/auth"))
	_, err := c.AwaitRequest(time.Millisecond * 20)
	assert.Error(t, err)
}

func TestRequestCaptureRequireNoMoreRequests(t *testing.T) {
	c := NewRequestCapture("mock upstream", nil)

	var ok helpers.TestRecorder
	c.RequireNoMoreRequests(&ok, time.Millisecond*10)
	assert.False(t, ok.Terminated)

	r, _ := http.NewRequest("POST", "http://localhost/doAction", nil)
	c.Wrap(httphelpers.HandlerWithStatus(200)).ServeHTTP(httptest.NewRecorder(), r)

	var failed helpers.TestRecorder
	c.RequireNoMoreRequests(&failed, time.Second)
	assert.True(t, failed.Terminated)
	assert.Equal(t, []string{"did not expect another request to mock upstream, but got one"}, failed.Errors)
}

func TestRequestCaptureRequireRequestTimesOut(t *testing.T) {
	c := NewRequestCapture("mock upstream", nil)
	var rec helpers.TestRecorder
	_ = c.RequireRequest(&rec, time.Millisecond*10)
	assert.True(t, rec.Terminated)
	assert.Equal(t, []string{"timed out waiting for request to mock upstream"}, rec.Errors)
}

func TestRequestCaptureLogsUnrecognizedPath(t *testing.T) {
	var logger framework.CapturingLogger
	c := NewRequestCapture("mock upstream", &logger)
	r, _ := http.NewRequest("POST", "http://localhost/nope", nil)
	c.Wrap(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, logger.Output().Contains("mock upstream received POST request for unrecognized path /nope"))
}
