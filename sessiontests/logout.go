package sessiontests

import (
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/token"
)

func doLogoutTests(t *ldtest.T) {
	t.Run("without a session fails every time", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		assertError(t, env.Logout(t, tok))
		assertError(t, env.Logout(t, tok))
	})

	t.Run("full lifecycle", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		requireOK(t, env.Login(t, tok))
		requireOK(t, env.Action(t, tok))
		requireOK(t, env.Logout(t, tok))
		assertError(t, env.Action(t, tok))

		assertCallCount(t, env, servicedef.UpstreamAuthPath, 1)
		assertCallCount(t, env, servicedef.UpstreamActionPath, 1)
	})

	t.Run("second logout fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		requireOK(t, env.Login(t, tok))
		requireOK(t, env.Logout(t, tok))
		assertError(t, env.Logout(t, tok))
	})

	t.Run("token can log in again after logout", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		requireOK(t, env.Login(t, tok))
		requireOK(t, env.Logout(t, tok))
		requireOK(t, env.Login(t, tok))
		requireOK(t, env.Action(t, tok))
	})
}
