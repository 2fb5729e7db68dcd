package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// TestContext is a minimal interface for types like *testing.T and *ldtest.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...any)
	FailNow()
	Helper()
}

// TestRecorder is a stub implementation of TestContext for testing test helpers.
type TestRecorder struct {
	Errors           []string
	Terminated       bool
	PanicOnTerminate bool
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...any) {
	t.Errors = append(t.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

// FailNow marks the recorder as terminated. If PanicOnTerminate is set it panics with the
// recorder itself, the same way ldtest.T does, so callers can verify that execution stopped.
func (t *TestRecorder) FailNow() {
	t.Terminated = true
	if t.PanicOnTerminate {
		panic(t)
	}
}

func (t *TestRecorder) Helper() {}

// Err returns all recorded failure messages joined into one error, or nil if there were none.
func (t *TestRecorder) Err() error {
	if len(t.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(t.Errors, ", "))
}
