package sessiontests

import (
	"strings"
	"time"
	"unicode"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"

	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/sessionclient"
)

const (
	// how long to wait for the service to call the mock after it has already answered
	upstreamCallTimeout = time.Second

	// how long to watch for an upstream call that should never happen
	noUpstreamCallTimeout = 200 * time.Millisecond

	// how long the mock holds a response when simulating a hung upstream
	hungUpstreamDelay = 10 * time.Second

	// the service must give up on a hung upstream well before the mock would have answered
	hungUpstreamDeadline = 8 * time.Second
)

func requireOK(t *ldtest.T, result sessionclient.Result) {
	t.Helper()
	m.In(t).Require(result, IsOKResult())
}

func assertError(t *ldtest.T, result sessionclient.Result) bool {
	t.Helper()
	return m.In(t).Assert(result, IsErrorResult())
}

func assertErrorWithMessage(t *ldtest.T, result sessionclient.Result, message string) {
	t.Helper()
	m.In(t).Assert(result, IsErrorResultWithMessage(message))
}

func assertCallCount(t *ldtest.T, env *SessionEnvironment, path string, expected int) {
	t.Helper()
	assert.Equal(t, expected, env.Mock.CallCount(path), "calls to %s", path)
}

// swapCase returns s with the case of every letter inverted, so that it is a different string
// unless s contains no letters.
func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}
