package mockupstream

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

// StubResponse is what the mock answers for one path.
type StubResponse struct {
	// Status is the HTTP status; zero means 200.
	Status int

	// Body is written as-is.
	Body string

	// Headers are added to the response.
	Headers http.Header

	// Delay, if non-zero, is how long the mock waits before answering.
	Delay time.Duration
}

// OKResponse is the default answer for both upstream paths.
func OKResponse() StubResponse {
	return StubResponse{
		Status:  http.StatusOK,
		Body:    `{"result":"OK"}`,
		Headers: http.Header{"Content-Type": []string{"application/json"}},
	}
}

// StatusResponse is a convenience for a stub that only changes the status.
func StatusResponse(status int) StubResponse {
	r := OKResponse()
	r.Status = status
	r.Body = `{"result":"ERROR"}`
	return r
}

// DelayedResponse is the default answer, sent after the specified delay.
func DelayedResponse(delay time.Duration) StubResponse {
	r := OKResponse()
	r.Delay = delay
	return r
}

// DefaultStubs returns the stubs that are in effect after ResetStubs.
func DefaultStubs() map[string]StubResponse {
	return map[string]StubResponse{
		servicedef.UpstreamAuthPath:   OKResponse(),
		servicedef.UpstreamActionPath: OKResponse(),
	}
}

// StubTable is the set of stubbed paths. It is safe for concurrent use; request handlers take a
// copy of the stub for their path, so replacing a stub does not affect requests in progress.
type StubTable struct {
	stubs map[string]StubResponse
	lock  sync.RWMutex
}

// NewStubTable creates a StubTable containing DefaultStubs.
func NewStubTable() *StubTable {
	return &StubTable{stubs: DefaultStubs()}
}

// Get returns the stub for a path, if any.
func (t *StubTable) Get(path string) (StubResponse, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	r, ok := t.stubs[path]
	return r, ok
}

// Set adds or replaces the stub for a path.
func (t *StubTable) Set(path string, response StubResponse) {
	t.lock.Lock()
	t.stubs[path] = response
	t.lock.Unlock()
}

// Reset discards all overrides and restores DefaultStubs.
func (t *StubTable) Reset() {
	t.lock.Lock()
	t.stubs = DefaultStubs()
	t.lock.Unlock()
}

// Paths returns the stubbed paths in sorted order.
func (t *StubTable) Paths() []string {
	t.lock.RLock()
	paths := maps.Keys(t.stubs)
	t.lock.RUnlock()
	slices.Sort(paths)
	return paths
}
