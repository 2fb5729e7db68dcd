// Package mockupstream provides the HTTP server that stands in for the upstream dependencies of
// the service under test: the /auth and /doAction endpoints.
//
// Each path answers according to a stub that tests can override, and every request is recorded
// so that tests can assert on what the service sent, or did not send.
package mockupstream

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/harness"
	"github.com/nordcodes/session-contract-tests/framework/helpers"
)

// Mock is the upstream mock server. The zero value is not usable; call New.
type Mock struct {
	stubs   *StubTable
	capture *harness.RequestCapture
	handler http.Handler
	logger  framework.Logger

	port    int
	server  *http.Server
	closing chan struct{}
	lock    sync.Mutex
}

// New creates a Mock that is not yet listening.
func New(logger framework.Logger) *Mock {
	if logger == nil {
		logger = framework.NullLogger()
	}
	m := &Mock{
		stubs:   NewStubTable(),
		capture: harness.NewRequestCapture("upstream mock", logger),
		logger:  logger,
	}

	router := mux.NewRouter()
	router.MatcherFunc(m.isStubbed).Methods(http.MethodPost).HandlerFunc(m.serveStub)
	m.handler = m.capture.Wrap(router)
	return m
}

// Start begins listening on the given port and returns once the listener is answering. If the
// mock is already running, Start only restores the default stubs.
func (m *Mock) Start(port int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.server != nil {
		if port != m.port {
			m.logger.Printf("Upstream mock is already running on port %d; ignoring request to start on %d", m.port, port)
		}
		m.stubs.Reset()
		return nil
	}

	closing := make(chan struct{})
	m.closing = closing
	server, err := harness.StartServer(port, m.handler, m.logger)
	if err != nil {
		return fmt.Errorf("could not start upstream mock: %w", err)
	}
	m.server = server
	m.port = port
	m.logger.Printf("Upstream mock listening on port %d", port)
	return nil
}

// Stop closes the listener. Requests that are waiting out a stub delay are abandoned. Calling
// Stop on a mock that is not running does nothing.
func (m *Mock) Stop() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.server == nil {
		return nil
	}
	close(m.closing)
	err := m.server.Close()
	m.server = nil
	m.logger.Printf("Upstream mock on port %d stopped", m.port)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IsRunning returns true between a successful Start and Stop.
func (m *Mock) IsRunning() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.server != nil
}

// BaseURL returns the URL that the service under test should use for its upstream calls.
func (m *Mock) BaseURL() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fmt.Sprintf("http://localhost:%d", m.port)
}

// Stub overrides the response for a path until the next ResetStubs.
func (m *Mock) Stub(path string, response StubResponse) {
	m.logger.Printf("Upstream mock: stubbing %s with status %d, delay %s", path, response.statusOrDefault(),
		response.Delay)
	m.stubs.Set(path, response)
}

// ResetStubs restores the default stubs and discards all recorded requests.
func (m *Mock) ResetStubs() {
	m.stubs.Reset()
	m.capture.Reset()
}

// Stubs returns the stub table.
func (m *Mock) Stubs() *StubTable {
	return m.stubs
}

// CallCount returns how many requests have been received for a path since the last ResetStubs,
// including requests to paths that are not stubbed.
func (m *Mock) CallCount(path string) int {
	return m.capture.CallCount(path)
}

// AwaitRequest waits for the next request received by the mock.
func (m *Mock) AwaitRequest(timeout time.Duration) (harness.IncomingRequestInfo, error) {
	return m.capture.AwaitRequest(timeout)
}

// RequireRequest waits for the next request received by the mock, and causes the test to fail
// and terminate if it timed out.
func (m *Mock) RequireRequest(t helpers.TestContext, timeout time.Duration) harness.IncomingRequestInfo {
	t.Helper()
	return m.capture.RequireRequest(t, timeout)
}

// RequireNoMoreRequests causes the test to fail and terminate if the mock receives a request
// within the timeout.
func (m *Mock) RequireNoMoreRequests(t helpers.TestContext, timeout time.Duration) {
	t.Helper()
	m.capture.RequireNoMoreRequests(t, timeout)
}

func (m *Mock) isStubbed(r *http.Request, _ *mux.RouteMatch) bool {
	_, ok := m.stubs.Get(r.URL.Path)
	return ok
}

func (m *Mock) serveStub(w http.ResponseWriter, r *http.Request) {
	stub, ok := m.stubs.Get(r.URL.Path)
	if !ok { // stub was removed after routing
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if stub.Delay > 0 {
		m.lock.Lock()
		closing := m.closing
		m.lock.Unlock()

		m.logger.Printf("Upstream mock: delaying response to %s by %s", r.URL.Path, stub.Delay)
		delay := time.NewTimer(stub.Delay)
		defer delay.Stop()
		select {
		case <-delay.C:
		case <-r.Context().Done():
			m.logger.Printf("Upstream mock: caller gave up on %s during delay", r.URL.Path)
			return
		case <-closing:
			return
		}
	}

	for name, values := range stub.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(stub.statusOrDefault())
	_, _ = w.Write([]byte(stub.Body))
}

func (r StubResponse) statusOrDefault() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}
