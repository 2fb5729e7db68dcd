package sessiontests

import (
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"

	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionclient"
)

// The functions in this file adapt the matchers API to sessionclient.Result, so that a failed
// assertion describes the whole result the service sent back.

func ResultStatus() m.MatcherTransform {
	return m.Transform(
		"result",
		func(value interface{}) (interface{}, error) {
			return value.(sessionclient.Result).Result, nil
		}).
		EnsureInputValueType(sessionclient.Result{})
}

// ResultMessage is the message of a result, or "" if there was none.
func ResultMessage() m.MatcherTransform {
	return m.Transform(
		"message",
		func(value interface{}) (interface{}, error) {
			return value.(sessionclient.Result).Message.OrElse(""), nil
		}).
		EnsureInputValueType(sessionclient.Result{})
}

func IsOKResult() m.Matcher {
	return ResultStatus().Should(m.Equal(servicedef.ResultOK))
}

func IsErrorResult() m.Matcher {
	return ResultStatus().Should(m.Equal(servicedef.ResultError))
}

func IsErrorResultWithMessage(message string) m.Matcher {
	return m.AllOf(IsErrorResult(), ResultMessage().Should(m.Equal(message)))
}
