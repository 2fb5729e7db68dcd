package harness

import (
	"net/http"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"
)

// ReadinessPolicy controls how AwaitReady polls.
type ReadinessPolicy struct {
	// Interval is the delay between the end of one probe and the start of the next.
	Interval time.Duration

	// MaxAttempts is the number of probes after which we give up.
	MaxAttempts int

	// ProbeTimeout bounds each individual probe request.
	ProbeTimeout time.Duration
}

// DefaultReadinessPolicy polls every 500ms, 40 times, for a ceiling of about 20 seconds.
func DefaultReadinessPolicy() ReadinessPolicy {
	return ReadinessPolicy{
		Interval:     500 * time.Millisecond,
		MaxAttempts:  40,
		ProbeTimeout: 500 * time.Millisecond,
	}
}

func (p ReadinessPolicy) withDefaults() ReadinessPolicy {
	d := DefaultReadinessPolicy()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.ProbeTimeout <= 0 {
		p.ProbeTimeout = d.ProbeTimeout
	}
	return p
}

// AwaitReady polls url with GET requests until one of them gets any HTTP response at all. The
// status code does not matter; connection errors and probe timeouts are ignored. If the policy
// is exhausted, it returns a *StartupTimeoutError.
func AwaitReady(url string, policy ReadinessPolicy) error {
	return awaitReady(url, policy, nil, framework.NullLogger())
}

func awaitReady(url string, policy ReadinessPolicy, process *ServiceProcess, logger framework.Logger) error {
	policy = policy.withDefaults()
	client := &http.Client{Timeout: policy.ProbeTimeout}
	var exited <-chan struct{}
	if process != nil {
		exited = process.exited
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		select {
		case <-exited:
			return process.exitedError()
		default:
		}

		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 100 && resp.StatusCode <= 599 {
				logger.Printf("Service at %s is ready after %d attempt(s) (status %d)", url, attempt, resp.StatusCode)
				return nil
			}
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}
		delay := time.NewTimer(policy.Interval)
		select {
		case <-exited:
			delay.Stop()
			return process.exitedError()
		case <-delay.C:
		}
	}

	timeoutErr := &StartupTimeoutError{URL: url, Attempts: policy.MaxAttempts, LastErr: lastErr}
	if process != nil {
		timeoutErr.Output = process.Output()
	}
	return timeoutErr
}
