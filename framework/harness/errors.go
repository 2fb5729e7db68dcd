package harness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrServiceAlreadyRunning is returned by Supervisor.Launch if the previously launched process
// has not exited yet.
var ErrServiceAlreadyRunning = errors.New("a service process is already running")

// StartupTimeoutError means the service did not answer a readiness probe within the allowed
// number of attempts.
type StartupTimeoutError struct {
	URL      string
	Attempts int
	LastErr  error
	Output   []string
}

func (e *StartupTimeoutError) Error() string {
	msg := fmt.Sprintf("service at %s did not become ready after %d attempts", e.URL, e.Attempts)
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last error: %s)", e.LastErr)
	}
	return msg + formatOutput(e.Output)
}

func (e *StartupTimeoutError) Unwrap() error { return e.LastErr }

// ProcessExitedError means the service process exited while we were waiting for it to become
// ready.
type ProcessExitedError struct {
	ExitCode int
	Err      error
	Output   []string
}

func (e *ProcessExitedError) Error() string {
	return fmt.Sprintf("service process exited before becoming ready (exit code %d)", e.ExitCode) +
		formatOutput(e.Output)
}

func (e *ProcessExitedError) Unwrap() error { return e.Err }

// PortInUseError means something was already accepting connections on the service port before
// the service was launched.
type PortInUseError struct {
	Port int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use; is a previous service instance still running?", e.Port)
}

func formatOutput(lines []string) string {
	if len(lines) == 0 {
		return "\n  (service produced no output)"
	}
	return "\n  service output:\n    | " + strings.Join(lines, "\n    | ")
}
