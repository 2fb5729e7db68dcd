package mockupstream

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/nordcodes/session-contract-tests/framework/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMock(t *testing.T) *Mock {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	m := New(nil)
	require.NoError(t, m.Start(port))
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

func post(t *testing.T, m *Mock, path string) (int, string) {
	t.Helper()
	resp, err := http.PostForm(m.BaseURL()+path, url.Values{"token": {"ABC"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDefaultStubs(t *testing.T) {
	m := startMock(t)
	for _, path := range []string{"/auth", "/doAction"} {
		status, body := post(t, m, path)
		assert.Equal(t, 200, status)
		assert.Equal(t, ldvalue.String("OK"), helpers.JSONProperty([]byte(body), "result"))
	}
}

func TestUnstubbedPathIsNotFound(t *testing.T) {
	m := startMock(t)
	status, _ := post(t, m, "/auth-fail")
	assert.Equal(t, 404, status)
	assert.Equal(t, 1, m.CallCount("/auth-fail"))
}

func TestStubsOnlyAnswerPost(t *testing.T) {
	m := startMock(t)
	resp, err := http.Get(m.BaseURL() + "/auth")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStubOverrideAndReset(t *testing.T) {
	m := startMock(t)
	m.Stub("/auth", StatusResponse(500))
	m.Stub("/extra", StubResponse{Status: 201, Body: "created", Headers: http.Header{"X-Extra": {"yes"}}})

	status, _ := post(t, m, "/auth")
	assert.Equal(t, 500, status)
	status, body := post(t, m, "/extra")
	assert.Equal(t, 201, status)
	assert.Equal(t, "created", body)
	status, _ = post(t, m, "/doAction")
	assert.Equal(t, 200, status)

	assert.Equal(t, []string{"/auth", "/doAction", "/extra"}, m.Stubs().Paths())

	m.ResetStubs()
	assert.Equal(t, 0, m.CallCount("/auth"))
	assert.Equal(t, []string{"/auth", "/doAction"}, m.Stubs().Paths())
	status, _ = post(t, m, "/auth")
	assert.Equal(t, 200, status)
	status, _ = post(t, m, "/extra")
	assert.Equal(t, 404, status)
}

func TestRequestCapture(t *testing.T) {
	m := startMock(t)
	_, _ = post(t, m, "/auth")

	var rec helpers.TestRecorder
	req := m.RequireRequest(&rec, time.Second)
	require.Nil(t, rec.Err())
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/auth", req.URL.Path)
	assert.Equal(t, "token=ABC", string(req.Body))
	assert.True(t, strings.HasPrefix(req.Headers.Get("Content-Type"), "application/x-www-form-urlencoded"))

	m.RequireNoMoreRequests(&rec, time.Millisecond*50)
	assert.Nil(t, rec.Err())
	assert.Equal(t, 1, m.CallCount("/auth"))
	assert.Equal(t, 0, m.CallCount("/doAction"))
}

func TestDelayedStub(t *testing.T) {
	m := startMock(t)
	m.Stub("/auth", DelayedResponse(200*time.Millisecond))
	start := time.Now()
	status, _ := post(t, m, "/auth")
	assert.Equal(t, 200, status)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestCallerTimeoutReleasesDelayedHandler(t *testing.T) {
	m := startMock(t)
	m.Stub("/auth", DelayedResponse(10*time.Second))
	client := &http.Client{Timeout: 100 * time.Millisecond}
	start := time.Now()
	_, err := client.PostForm(m.BaseURL()+"/auth", url.Values{"token": {"ABC"}})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStopDoesNotWaitForDelay(t *testing.T) {
	m := startMock(t)
	m.Stub("/auth", DelayedResponse(10*time.Second))
	done := make(chan error, 1)
	go func() {
		resp, err := http.PostForm(m.BaseURL()+"/auth", url.Values{})
		if err == nil {
			_ = resp.Body.Close()
		}
		done <- err
	}()
	_, err := m.AwaitRequest(time.Second)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, m.Stop())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request was not released by Stop")
	}
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, m.IsRunning())
}

func TestStartIsIdempotent(t *testing.T) {
	m := startMock(t)
	m.Stub("/auth", StatusResponse(401))
	port := m.port
	require.NoError(t, m.Start(port))
	status, _ := post(t, m, "/auth")
	assert.Equal(t, 200, status)
}

func TestStopWhenNotRunning(t *testing.T) {
	m := New(nil)
	assert.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
}

func TestRestartAfterStop(t *testing.T) {
	m := startMock(t)
	port := m.port
	require.NoError(t, m.Stop())
	require.NoError(t, m.Start(port))
	status, _ := post(t, m, "/doAction")
	assert.Equal(t, 200, status)
}
