package opt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type portConfig struct {
	Port Maybe[int] `json:"port"`
}

func TestNone(t *testing.T) {
	assert.False(t, None[string]().IsDefined())
	assert.Equal(t, "", None[string]().Value())
	assert.Equal(t, "[none]", None[string]().String())
}

func TestSomeEmptyStringIsDefined(t *testing.T) {
	m := Some("")
	assert.True(t, m.IsDefined())
	v, ok := m.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestOrElse(t *testing.T) {
	assert.Equal(t, 8080, None[int]().OrElse(8080))
	assert.Equal(t, 9090, Some(9090).OrElse(8080))
}

func TestMarshalUnmarshal(t *testing.T) {
	testMarshalUnmarshal(t, portConfig{}, `{"port": null}`)
	testMarshalUnmarshal(t, portConfig{Port: Some(8888)}, `{"port": 8888}`)

	var c portConfig
	require.NoError(t, json.Unmarshal([]byte(`{}`), &c))
	assert.False(t, c.Port.IsDefined())

	var m Maybe[int]
	assert.Error(t, m.UnmarshalJSON([]byte(`malformed json`)))
	assert.Error(t, m.UnmarshalJSON([]byte(`"not a number"`)))
}

func testMarshalUnmarshal(t *testing.T, expected portConfig, expectedJSON string) {
	data, err := json.Marshal(expected)
	require.NoError(t, err)
	assert.JSONEq(t, expectedJSON, string(data))

	var actual portConfig
	require.NoError(t, json.Unmarshal([]byte(expectedJSON), &actual))
	assert.Equal(t, expected, actual)
}
