package sessiontests

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordcodes/session-contract-tests/framework/harness"
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	o "github.com/nordcodes/session-contract-tests/framework/opt"
	"github.com/nordcodes/session-contract-tests/mockupstream"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionclient"
)

// SessionEnvironment is everything one test needs: a running upstream mock with default stubs,
// a service process pointed at it, and a client for the protocol endpoint.
type SessionEnvironment struct {
	Mock    *mockupstream.Mock
	Process *harness.ServiceProcess
	Client  *sessionclient.Client

	secret         string
	requestTimeout time.Duration
}

// NewSessionEnvironment starts the mock and the service for the current test. Teardown is
// registered with t.Defer and runs in reverse: the process is terminated, the stubs are reset,
// then the mock is stopped. Any startup failure, such as the process exiting early or the port
// being taken, fails the test with the process output attached.
func NewSessionEnvironment(t *ldtest.T) *SessionEnvironment {
	t.Helper()
	sc := requireContext(t)

	require.NoError(t, sc.mock.Start(sc.config.MockPort))
	t.Defer(func() { assert.NoError(t, sc.mock.Stop()) })
	t.Defer(sc.mock.ResetStubs)
	sc.mock.ResetStubs()

	command := sc.config.Service
	command.UpstreamURL = sc.mock.BaseURL()
	process, err := sc.supervisor.Launch(command)
	require.NoError(t, err)
	t.Defer(func() { assert.NoError(t, sc.supervisor.Terminate()) })
	require.NoError(t, process.AwaitReady(sc.config.Readiness))

	client, err := sessionclient.New(command.BaseURL(), command.Secret,
		sessionclient.WithHTTPClient(&http.Client{Timeout: sc.config.RequestTimeout}),
		sessionclient.WithLogger(t.DebugLogger()),
	)
	require.NoError(t, err)

	return &SessionEnvironment{
		Mock:           sc.mock,
		Process:        process,
		Client:         client,
		secret:         command.Secret,
		requestTimeout: sc.config.RequestTimeout,
	}
}

// Secret returns the API key that the service was configured with.
func (e *SessionEnvironment) Secret() string { return e.secret }

// Login sends a well-formed LOGIN request.
func (e *SessionEnvironment) Login(t *ldtest.T, tok string) sessionclient.Result {
	t.Helper()
	return e.Submit(t, tok, servicedef.ActionLogin)
}

// Action sends a well-formed ACTION request.
func (e *SessionEnvironment) Action(t *ldtest.T, tok string) sessionclient.Result {
	t.Helper()
	return e.Submit(t, tok, servicedef.ActionAction)
}

// Logout sends a well-formed LOGOUT request.
func (e *SessionEnvironment) Logout(t *ldtest.T, tok string) sessionclient.Result {
	t.Helper()
	return e.Submit(t, tok, servicedef.ActionLogout)
}

// Submit sends a well-formed request with the configured API key.
func (e *SessionEnvironment) Submit(t *ldtest.T, tok string, action servicedef.Action) sessionclient.Result {
	t.Helper()
	return e.Send(t, sessionclient.Request{
		APIKey: o.Some(e.secret),
		Token:  o.Some(tok),
		Action: o.Some(string(action)),
	})
}

// SendTo sends an otherwise well-formed request to a path other than the protocol endpoint.
func (e *SessionEnvironment) SendTo(t *ldtest.T, path, tok string, action servicedef.Action) sessionclient.Result {
	t.Helper()
	return e.Send(t, sessionclient.Request{
		Path:   path,
		APIKey: o.Some(e.secret),
		Token:  o.Some(tok),
		Action: o.Some(string(action)),
	})
}

// Send sends a request exactly as described. Every response from the protocol endpoint must
// have status 200, whatever the result; requests to other paths may have any status.
func (e *SessionEnvironment) Send(t *ldtest.T, req sessionclient.Request) sessionclient.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
	defer cancel()

	resp, err := e.Client.Send(ctx, req)
	require.NoError(t, err)
	if req.Path == "" {
		assert.Equal(t, http.StatusOK, resp.StatusCode, "status of protocol response")
	}
	return resp.Result
}

// RequireNoUpstreamCalls fails the test if the service has called either upstream path since
// the environment was created or the stubs were last reset.
func (e *SessionEnvironment) RequireNoUpstreamCalls(t *ldtest.T) {
	t.Helper()
	e.Mock.RequireNoMoreRequests(t, noUpstreamCallTimeout)
	require.Equal(t, 0, e.Mock.CallCount(servicedef.UpstreamAuthPath), "calls to %s", servicedef.UpstreamAuthPath)
	require.Equal(t, 0, e.Mock.CallCount(servicedef.UpstreamActionPath), "calls to %s", servicedef.UpstreamActionPath)
}
