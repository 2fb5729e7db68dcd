package harness

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCommandString(t *testing.T) {
	c := ServiceCommand{Path: "/opt/my service/bin", Args: []string{"--store", "memory:", "it's"}}
	assert.Equal(t, `'/opt/my service/bin' --store memory: 'it'"'"'s'`, c.String())
}

func TestLaunchAwaitReadyAndTerminate(t *testing.T) {
	var logger framework.CapturingLogger
	s := NewSupervisor(&logger)
	command := helperCommand(t, "serve")

	p, err := s.Launch(command)
	require.NoError(t, err)
	defer func() { _ = s.Terminate() }()

	require.NoError(t, p.AwaitReady(fastPolicy()))
	assert.False(t, p.HasExited())

	require.NoError(t, s.Terminate())
	assert.True(t, p.HasExited())
	assert.Equal(t, 0, p.ExitCode())

	assert.Contains(t, p.Output(), "secret=s3cret upstream=http://localhost:1")
	assert.Contains(t, p.Output(), "stopping")
	assert.True(t, logger.Output().Contains("[service] stopping"), logger.Output().ToString(""))
	assert.True(t, logger.Output().Contains("Launching service"))
}

func TestLaunchWhileRunningFails(t *testing.T) {
	s := NewSupervisor(nil)
	p, err := s.Launch(helperCommand(t, "serve"))
	require.NoError(t, err)
	defer func() { _ = p.Terminate() }()

	_, err = s.Launch(helperCommand(t, "serve"))
	assert.Equal(t, ErrServiceAlreadyRunning, err)
}

func TestLaunchAfterPreviousProcessExitedSucceeds(t *testing.T) {
	s := NewSupervisor(nil)
	p1, err := s.Launch(helperCommand(t, "exit"))
	require.NoError(t, err)
	<-p1.Exited()

	p2, err := s.Launch(helperCommand(t, "serve"))
	require.NoError(t, err)
	assert.NoError(t, p2.Terminate())
}

func TestLaunchFailsIfPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()

	command := helperCommand(t, "serve")
	command.Port = l.Addr().(*net.TCPAddr).Port
	_, err = NewSupervisor(nil).Launch(command)
	var portErr *PortInUseError
	require.True(t, errors.As(err, &portErr), "unexpected error: %v", err)
	assert.Equal(t, command.Port, portErr.Port)
}

func TestLaunchFailsForMissingExecutable(t *testing.T) {
	command := helperCommand(t, "serve")
	command.Path = "/nonexistent/session-service"
	_, err := NewSupervisor(nil).Launch(command)
	assert.Error(t, err)
}

func TestAwaitReadyFailsFastWhenProcessExits(t *testing.T) {
	p, err := NewSupervisor(nil).Launch(helperCommand(t, "exit"))
	require.NoError(t, err)

	policy := ReadinessPolicy{Interval: 50 * time.Millisecond, MaxAttempts: 400, ProbeTimeout: 100 * time.Millisecond}
	start := time.Now()
	err = p.AwaitReady(policy)
	assert.Less(t, time.Since(start), 10*time.Second)

	var exitErr *ProcessExitedError
	require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Contains(t, exitErr.Output, "fatal: bad configuration")
	assert.Contains(t, exitErr.Output, "exiting with code 3")
	assert.Contains(t, err.Error(), "| fatal: bad configuration")
	assert.NoError(t, p.Terminate())
}

func TestTerminateKillsProcessThatIgnoresSIGTERM(t *testing.T) {
	command := helperCommand(t, "ignore-term")
	command.StopTimeout = 300 * time.Millisecond
	p, err := NewSupervisor(nil).Launch(command)
	require.NoError(t, err)
	require.NoError(t, p.AwaitReady(fastPolicy()))

	require.NoError(t, p.Terminate())
	assert.True(t, p.HasExited())
	assert.Equal(t, -1, p.ExitCode())
}

func TestTerminateIsIdempotent(t *testing.T) {
	s := NewSupervisor(nil)
	p, err := s.Launch(helperCommand(t, "serve"))
	require.NoError(t, err)
	require.NoError(t, p.AwaitReady(fastPolicy()))

	assert.NoError(t, p.Terminate())
	assert.NoError(t, p.Terminate())
	assert.NoError(t, s.Terminate())
	assert.NoError(t, s.Terminate())
}

func TestSupervisorKeepsProcessWhoseTerminationFailed(t *testing.T) {
	p := &ServiceProcess{exited: make(chan struct{}), logger: framework.NullLogger()}
	p.terminateOnce.Do(func() { p.terminateErr = errors.New("could not kill service process") })
	s := NewSupervisor(nil)
	s.current = p

	assert.Error(t, s.Terminate())
	assert.Same(t, p, s.current)

	_, err := s.Launch(helperCommand(t, "serve"))
	assert.ErrorIs(t, err, ErrServiceAlreadyRunning)
}

func TestSupervisorForgetsProcessAfterTermination(t *testing.T) {
	s := NewSupervisor(nil)
	p, err := s.Launch(helperCommand(t, "serve"))
	require.NoError(t, err)
	require.NoError(t, p.AwaitReady(fastPolicy()))

	require.NoError(t, s.Terminate())
	assert.Nil(t, s.current)
}

func TestHiddenOutputIsRetainedButNotLogged(t *testing.T) {
	var logger framework.CapturingLogger
	command := helperCommand(t, "serve")
	command.HideOutput = []*regexp.Regexp{regexp.MustCompile("^secret=")}
	p, err := NewSupervisor(&logger).Launch(command)
	require.NoError(t, err)
	require.NoError(t, p.AwaitReady(fastPolicy()))
	require.NoError(t, p.Terminate())

	assert.Contains(t, p.Output(), "secret=s3cret upstream=http://localhost:1")
	assert.False(t, logger.Output().Contains("secret="))
	assert.True(t, logger.Output().Contains("[service] listening on port"))
}

func TestAwaitReadyAcceptsAnyStatus(t *testing.T) {
	for _, status := range []int{200, 404, 500, 503} {
		httphelpers.WithServer(httphelpers.HandlerWithStatus(status), func(server *httptest.Server) {
			assert.NoError(t, AwaitReady(server.URL, fastPolicy()), "status %d", status)
		})
	}
}

func TestAwaitReadyTimesOut(t *testing.T) {
	port := freePort(t)
	policy := ReadinessPolicy{Interval: 10 * time.Millisecond, MaxAttempts: 3, ProbeTimeout: 50 * time.Millisecond}
	err := AwaitReady(fmt.Sprintf("http://localhost:%d/", port), policy)

	var timeoutErr *StartupTimeoutError
	require.True(t, errors.As(err, &timeoutErr), "unexpected error: %v", err)
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.Error(t, timeoutErr.LastErr)
	assert.Contains(t, err.Error(), "did not become ready after 3 attempts")
}

func TestAwaitReadyRetriesUntilListenerAppears(t *testing.T) {
	port := freePort(t)
	go func() {
		time.Sleep(200 * time.Millisecond)
		server, err := StartServer(port, httphelpers.HandlerWithStatus(http.StatusNoContent), nil)
		if err == nil {
			time.Sleep(2 * time.Second)
			_ = server.Close()
		}
	}()
	assert.NoError(t, AwaitReady(fmt.Sprintf("http://localhost:%d/", port), fastPolicy()))
}
