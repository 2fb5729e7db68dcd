package sessiontests

import (
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/token"
)

func doActionTests(t *ldtest.T) {
	t.Run("before login fails without calling doAction", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)

		assertError(t, env.Action(t, token.Generate()))
		env.RequireNoUpstreamCalls(t)
	})

	t.Run("after login succeeds and calls doAction", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))
		_ = env.Mock.RequireRequest(t, upstreamCallTimeout) // auth

		requireOK(t, env.Action(t, tok))

		req := env.Mock.RequireRequest(t, upstreamCallTimeout)
		assert.Equal(t, servicedef.UpstreamActionPath, req.URL.Path)
		assert.Contains(t, string(req.Body), tok, "the token should be passed to %s", servicedef.UpstreamActionPath)
	})

	t.Run("can be repeated within one session", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))

		for i := 0; i < 3; i++ {
			requireOK(t, env.Action(t, tok))
		}
		assertCallCount(t, env, servicedef.UpstreamActionPath, 3)
	})

	t.Run("with a token that has no session fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		requireOK(t, env.Login(t, token.Generate()))

		assertError(t, env.Action(t, token.Generate()))
		assertCallCount(t, env, servicedef.UpstreamActionPath, 0)
	})

	t.Run("after a login that was rejected for a malformed token fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := strings.Repeat("A", token.Length+1)

		assertError(t, env.Login(t, tok))
		assertError(t, env.Action(t, tok))
		env.RequireNoUpstreamCalls(t)
	})
}
