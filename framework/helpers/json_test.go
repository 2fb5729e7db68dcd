package helpers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
)

func TestAssertJSONEqualIgnoresPropertyOrder(t *testing.T) {
	var tr TestRecorder
	assert.True(t, AssertJSONEqual(&tr, `{"result":"OK","message":"x"}`, []byte(`{"message": "x", "result": "OK"}`)))
	assert.NoError(t, tr.Err())
}

func TestAssertJSONEqualReportsDifference(t *testing.T) {
	var tr TestRecorder
	assert.False(t, AssertJSONEqual(&tr, `{"result":"OK"}`, []byte(`{"result":"ERROR"}`)))
	if assert.Error(t, tr.Err()) {
		assert.Contains(t, tr.Err().Error(), "ERROR")
	}
}

func TestJSONProperty(t *testing.T) {
	assert.Equal(t, ldvalue.String("OK"), JSONProperty([]byte(`{"result":"OK"}`), "result"))
	assert.Equal(t, ldvalue.Null(), JSONProperty([]byte(`{"result":"OK"}`), "message"))
	assert.Equal(t, ldvalue.Null(), JSONProperty([]byte(`not json`), "result"))
}
