package sessiontests

import (
	"fmt"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/harness"
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/mockupstream"
	"github.com/nordcodes/session-contract-tests/servicedef"
)

// DefaultRequestTimeout bounds each request that a test sends to the service. It is well above
// the delay that tests use to simulate a hung upstream, so that a service which waits out the
// whole delay is reported as answering too slowly rather than as not answering.
const DefaultRequestTimeout = 20 * time.Second

// SuiteConfig describes the service under test and the resources the tests share.
type SuiteConfig struct {
	// Service is the command that launches the service. Its UpstreamURL is set by the suite.
	Service harness.ServiceCommand

	// MockPort is the port of the upstream mock.
	MockPort int

	// Readiness controls how long each test waits for a newly launched service to answer.
	Readiness harness.ReadinessPolicy

	// RequestTimeout overrides DefaultRequestTimeout.
	RequestTimeout time.Duration

	// DebugLogger, if set, receives all harness and service output as it happens, in addition
	// to the output that is captured for each test.
	DebugLogger framework.Logger
}

func (c SuiteConfig) withDefaults() SuiteConfig {
	if c.Service.Port == 0 {
		c.Service.Port = servicedef.DefaultServicePort
	}
	if c.Service.Secret == "" {
		c.Service.Secret = servicedef.DefaultSecret
	}
	if c.MockPort == 0 {
		c.MockPort = servicedef.DefaultUpstreamPort
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

type suiteContext struct {
	config     SuiteConfig
	mock       *mockupstream.Mock
	supervisor *harness.Supervisor
}

// RunSessionTestSuite runs every contract test that passes the filter.
func RunSessionTestSuite(
	config SuiteConfig,
	filter ldtest.Filter,
	testLogger ldtest.TestLogger,
) ldtest.Results {
	config = config.withDefaults()
	sc := &suiteContext{config: config}

	ldConfig := ldtest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context:    sc,
	}

	return ldtest.Run(ldConfig, func(t *ldtest.T) {
		// The top-level logger forwards to whichever test is currently running.
		logger := framework.MultiLogger(t.DebugLogger(), config.DebugLogger)
		sc.mock = mockupstream.New(logger)
		sc.supervisor = harness.NewSupervisor(logger)
		t.Defer(func() {
			_ = sc.supervisor.Terminate()
			_ = sc.mock.Stop()
		})

		t.Run("login", doLoginTests)
		t.Run("token format", doTokenFormatTests)
		t.Run("api key", doAPIKeyTests)
		t.Run("request fields", doRequestFieldTests)
		t.Run("action", doActionTests)
		t.Run("logout", doLogoutTests)
		t.Run("upstream failures", doUpstreamFailureTests)
		t.Run("endpoint paths", doEndpointPathTests)
	})
}

func requireContext(t *ldtest.T) *suiteContext {
	sc, ok := t.Context().(*suiteContext)
	if !ok || sc.mock == nil {
		require.Fail(t, fmt.Sprintf("test was run without a session suite context (got %T)", t.Context()))
	}
	return sc
}
