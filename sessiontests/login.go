package sessiontests

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionclient"
	"github.com/nordcodes/session-contract-tests/token"
)

const fixedValidToken = "0123456789ABCDEF0123456789ABCDEF"

func doLoginTests(t *ldtest.T) {
	t.Run("generated token is accepted", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		requireOK(t, env.Login(t, tok))

		req := env.Mock.RequireRequest(t, upstreamCallTimeout)
		assert.Equal(t, servicedef.UpstreamAuthPath, req.URL.Path)
		assert.Contains(t, string(req.Body), tok, "the token should be passed to %s", servicedef.UpstreamAuthPath)
		assertCallCount(t, env, servicedef.UpstreamAuthPath, 1)
	})

	for _, p := range []struct {
		name  string
		token string
	}{
		{"fixed token", fixedValidToken},
		{"32 capital letters", strings.Repeat("A", token.Length)},
		{"32 digits", strings.Repeat("7", token.Length)},
		{"letters outside hex range", strings.Repeat("XYZ", 10) + "QW"},
	} {
		p := p
		t.Run(p.name+" is accepted", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)
			requireOK(t, env.Login(t, p.token))
		})
	}

	t.Run("second login for the same token fails", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		requireOK(t, env.Login(t, tok))
		assertError(t, env.Login(t, tok))
		assertCallCount(t, env, servicedef.UpstreamAuthPath, 1)

		// the existing session is still usable
		requireOK(t, env.Action(t, tok))
	})

	t.Run("sessions for different tokens are independent", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok1, tok2 := token.Generate(), token.Generate()

		requireOK(t, env.Login(t, tok1))
		requireOK(t, env.Login(t, tok2))
		requireOK(t, env.Logout(t, tok1))

		requireOK(t, env.Action(t, tok2))
		assertError(t, env.Action(t, tok1))
	})

	t.Run("concurrent logins for one token create one session", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()

		const attempts = 5
		results := make([]sessionclient.Response, attempts)
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), env.requestTimeout)
				defer cancel()
				results[i], errs[i] = env.Client.Submit(ctx, tok, servicedef.ActionLogin)
			}(i)
		}
		wg.Wait()

		okCount := 0
		for i := range results {
			require.NoError(t, errs[i])
			if results[i].Result.IsOK() {
				okCount++
			}
		}
		assert.Equal(t, 1, okCount, "number of OK results from %d concurrent logins", attempts)
		requireOK(t, env.Logout(t, tok))
		assertError(t, env.Logout(t, tok))
	})
}
