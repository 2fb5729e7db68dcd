package sessiontests

import (
	"strings"

	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	o "github.com/nordcodes/session-contract-tests/framework/opt"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionclient"
	"github.com/nordcodes/session-contract-tests/token"
)

func doTokenFormatTests(t *ldtest.T) {
	t.Run("33 characters is rejected with the pattern message", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)

		result := env.Login(t, strings.Repeat("A", token.Length+1))

		assertErrorWithMessage(t, result, servicedef.TokenPatternMessage)
		env.RequireNoUpstreamCalls(t)
	})

	for _, p := range []struct {
		name  string
		token string
	}{
		{"31 characters", strings.Repeat("A", token.Length-1)},
		{"short token", "ABC123"},
		{"lowercase letters", strings.Repeat("a", token.Length)},
		{"mixed case", strings.Repeat("Ab", token.Length/2)},
		{"special characters", strings.Repeat("!@#$", token.Length/4)},
		{"surrounding spaces", " " + strings.Repeat("A", token.Length-2) + " "},
		{"non-ASCII letters", strings.Repeat("Ж", token.Length)},
		{"trailing newline", fixedValidToken + "\n"},
	} {
		p := p
		t.Run(p.name+" is rejected", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)

			assertError(t, env.Login(t, p.token))
			env.RequireNoUpstreamCalls(t)
		})
	}

	t.Run("malformed token is rejected for every action", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := strings.ToLower(fixedValidToken)

		for _, action := range []servicedef.Action{servicedef.ActionLogin, servicedef.ActionAction, servicedef.ActionLogout} {
			assertError(t, env.Submit(t, tok, action))
		}
		env.RequireNoUpstreamCalls(t)
	})
}

func doAPIKeyTests(t *ldtest.T) {
	keyParams := []struct {
		name string
		key  func(secret string) o.Maybe[string]
	}{
		{"missing header", func(string) o.Maybe[string] { return o.None[string]() }},
		{"empty key", func(string) o.Maybe[string] { return o.Some("") }},
		{"wrong key", func(secret string) o.Maybe[string] { return o.Some("wrongKey" + secret) }},
		{"key in wrong case", func(secret string) o.Maybe[string] { return o.Some(swapCase(secret)) }},
	}

	for _, p := range keyParams {
		p := p
		t.Run(p.name+" is rejected for LOGIN", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)
			key := p.key(env.Secret())
			if key.Value() == env.Secret() {
				t.SkipWithReason("the configured secret has no letters, so it cannot be changed by case")
			}
			tok := token.Generate()

			assertError(t, env.Send(t, sessionclient.Request{
				APIKey: key,
				Token:  o.Some(tok),
				Action: o.Some(string(servicedef.ActionLogin)),
			}))
			env.RequireNoUpstreamCalls(t)

			// the rejected request did not create a session
			requireOK(t, env.Login(t, tok))
		})
	}

	t.Run("missing header is rejected for ACTION on an active session", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))

		assertError(t, env.Send(t, sessionclient.Request{
			Token:  o.Some(tok),
			Action: o.Some(string(servicedef.ActionAction)),
		}))
		assertCallCount(t, env, servicedef.UpstreamActionPath, 0)

		requireOK(t, env.Action(t, tok))
	})

	t.Run("wrong key is rejected for LOGOUT on an active session", func(t *ldtest.T) {
		env := NewSessionEnvironment(t)
		tok := token.Generate()
		requireOK(t, env.Login(t, tok))

		assertError(t, env.Send(t, sessionclient.Request{
			APIKey: o.Some("wrongKey"),
			Token:  o.Some(tok),
			Action: o.Some(string(servicedef.ActionLogout)),
		}))

		// the session survived the rejected logout
		requireOK(t, env.Action(t, tok))
	})
}

func doRequestFieldTests(t *ldtest.T) {
	for _, p := range []struct {
		name   string
		token  o.Maybe[string]
		action o.Maybe[string]
	}{
		{"unknown action", o.Some(fixedValidToken), o.Some("DANCE")},
		{"action in lowercase", o.Some(fixedValidToken), o.Some("login")},
		{"empty action", o.Some(fixedValidToken), o.Some("")},
		{"missing action field", o.Some(fixedValidToken), o.None[string]()},
		{"empty token", o.Some(""), o.Some(string(servicedef.ActionLogin))},
		{"missing token field", o.None[string](), o.Some(string(servicedef.ActionLogin))},
		{"no fields at all", o.None[string](), o.None[string]()},
	} {
		p := p
		t.Run(p.name+" is rejected", func(t *ldtest.T) {
			env := NewSessionEnvironment(t)

			result := env.Send(t, sessionclient.Request{
				APIKey: o.Some(env.Secret()),
				Token:  p.token,
				Action: p.action,
			})

			assertError(t, result)
			env.RequireNoUpstreamCalls(t)
		})
	}
}
