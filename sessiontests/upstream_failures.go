package sessiontests

import (
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/mockupstream"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/token"
)

func doUpstreamFailureTests(t *ldtest.T) {
	t.Run("auth", doAuthFailureTests)
	t.Run("doAction", doActionFailureTests)
}

func doAuthFailureTests(t *ldtest.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusServiceUnavailable} {
		status := status
		t.Run(http.StatusText(status)+" fails login", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)
			tok := token.Generate()
			env.Mock.Stub(servicedef.UpstreamAuthPath, mockupstream.StatusResponse(status))

			assertError(t, env.Login(t, tok))
			assertCallCount(t, env, servicedef.UpstreamAuthPath, 1)

			// a failed login does not create a session
			assertError(t, env.Action(t, tok))
			assertCallCount(t, env, servicedef.UpstreamActionPath, 0)
		})
	}

	t.Run("same token can log in once auth recovers", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		env.Mock.Stub(servicedef.UpstreamAuthPath, mockupstream.StatusResponse(http.StatusInternalServerError))

		assertError(t, env.Login(t, tok))

		env.Mock.ResetStubs()
		requireOK(t, env.Login(t, tok))
	})

	t.Run("hung auth fails login before the upstream answers", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		env.Mock.Stub(servicedef.UpstreamAuthPath, mockupstream.DelayedResponse(hungUpstreamDelay))

		start := time.Now()
		result := env.Login(t, token.Generate())
		elapsed := time.Since(start)

		assertError(t, result)
		assert.Less(t, elapsed, hungUpstreamDeadline,
			"the service should give up on an upstream that does not answer within %s", hungUpstreamDelay)
	})

	t.Run("unreachable auth fails login", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		require.NoError(t, env.Mock.Stop())

		assertError(t, env.Login(t, token.Generate()))
	})
}

func doActionFailureTests(t *ldtest.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadRequest} {
		status := status
		t.Run(http.StatusText(status)+" fails action but keeps the session", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)
			tok := token.Generate()
			requireOK(t, env.Login(t, tok))
			env.Mock.Stub(servicedef.UpstreamActionPath, mockupstream.StatusResponse(status))

			assertError(t, env.Action(t, tok))
			assertCallCount(t, env, servicedef.UpstreamActionPath, 1)

			env.Mock.ResetStubs()
			requireOK(t, env.Action(t, tok))
			requireOK(t, env.Logout(t, tok))
		})
	}

	t.Run("hung doAction fails action before the upstream answers", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))
		env.Mock.Stub(servicedef.UpstreamActionPath, mockupstream.DelayedResponse(hungUpstreamDelay))

		start := time.Now()
		result := env.Action(t, tok)
		elapsed := time.Since(start)

		assertError(t, result)
		assert.Less(t, elapsed, hungUpstreamDeadline,
			"the service should give up on an upstream that does not answer within %s", hungUpstreamDelay)

		env.Mock.ResetStubs()
		requireOK(t, env.Action(t, tok))
	})
}

func doEndpointPathTests(t *ldtest.T) {
	t.Run("login sent to the auth-fail path fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		assertError(t, env.SendTo(t, "/auth-fail", tok, servicedef.ActionLogin))

		// nothing was created by the misdirected request
		requireOK(t, env.Login(t, tok))
	})

	t.Run("action sent to the doAction-fail path fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))

		assertError(t, env.SendTo(t, "/doAction-fail", tok, servicedef.ActionAction))
		assertCallCount(t, env, servicedef.UpstreamActionPath, 0)
	})
}
