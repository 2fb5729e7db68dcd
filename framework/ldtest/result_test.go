package ldtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestIDString(t *testing.T) {
	assert.Equal(t, "", TestID{}.String())
	assert.Equal(t, "login", TestID{"login"}.String())
	assert.Equal(t, "login/double login", TestID{"login", "double login"}.String())
}

func TestTestIDPlus(t *testing.T) {
	assert.Equal(t, TestID{"logout"}, TestID{}.Plus("logout"))

	// Plus does not modify the original value
	id1 := TestID{"logout"}
	id2a := id1.Plus("success")
	id2b := id1.Plus("without login")
	assert.Equal(t, TestID{"logout"}, id1)
	assert.Equal(t, TestID{"logout", "success"}, id2a)
	assert.Equal(t, TestID{"logout", "without login"}, id2b)
}

func TestTestFailureError(t *testing.T) {
	f := TestFailure{ID: TestID{"action", "without login"}, Err: errors.New("expected ERROR")}
	assert.Equal(t, "[action/without login]: expected ERROR", f.Error())
}

func TestResultsOK(t *testing.T) {
	assert.True(t, Results{}.OK())
	assert.False(t, Results{Failures: []TestResult{{TestID: TestID{"x"}}}}.OK())
}
