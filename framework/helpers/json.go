package helpers

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
)

// AssertJSONEqual asserts that a raw JSON body is deeply equal to the expected JSON, ignoring
// property order and whitespace.
func AssertJSONEqual(t assert.TestingT, expectedJSON string, actualJSON []byte) bool {
	expected := ldvalue.Parse([]byte(expectedJSON))
	actual := ldvalue.Parse(actualJSON)
	if expected.Equal(actual) {
		return true
	}
	return assert.Fail(t, "JSON values were not equal",
		"expected: %s\nactual: %s", expected.JSONString(), string(actualJSON))
}

// JSONProperty parses a raw JSON body and returns the named top-level property, or
// ldvalue.Null() if the body is not an object or has no such property.
func JSONProperty(body []byte, name string) ldvalue.Value {
	return ldvalue.Parse(body).GetByKey(name)
}
