package sessiontests

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordcodes/session-contract-tests/framework/harness"
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionservice"
)

// helperModeEnv makes the test binary act as the service under test instead of running tests.
const helperModeEnv = "SESSIONTESTS_HELPER_MODE"

func TestMain(m *testing.M) {
	switch os.Getenv(helperModeEnv) {
	case "":
		os.Exit(m.Run())
	case "reference":
		os.Exit(runReferenceService())
	case "always-ok":
		os.Exit(runAlwaysOKService())
	}
	os.Exit(2)
}

func runReferenceService() int {
	config := sessionservice.DefaultConfig()
	config.Port, _ = strconv.Atoi(os.Getenv(servicedef.EnvPort))
	config.Secret = os.Getenv(servicedef.EnvSecret)
	config.UpstreamURL = os.Getenv(servicedef.EnvUpstreamURL)
	if d, err := time.ParseDuration(os.Getenv(servicedef.EnvUpstreamTimeout)); err == nil {
		config.UpstreamTimeout = d
	}

	logger, _ := sessionservice.NewLogger(os.Stderr, "debug", "text")
	server, err := sessionservice.NewServer(config, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runAlwaysOKService is a broken service that accepts everything.
func runAlwaysOKService() int {
	server := &http.Server{ //nolint:gosec
		Addr: ":" + os.Getenv(servicedef.EnvPort),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":"OK"}`))
		}),
	}
	go func() { _ = server.ListenAndServe() }()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	_ = server.Shutdown(context.Background())
	return 0
}

func helperSuiteConfig(t *testing.T, mode string) SuiteConfig {
	ports := freePorts(t, 2)
	return SuiteConfig{
		Service: harness.ServiceCommand{
			Path:   os.Args[0],
			Port:   ports[0],
			Secret: "test-Secret",
			Env: []string{
				helperModeEnv + "=" + mode,
				servicedef.EnvUpstreamTimeout + "=1s",
			},
			StopTimeout: 2 * time.Second,
		},
		MockPort: ports[1],
		Readiness: harness.ReadinessPolicy{
			Interval:     20 * time.Millisecond,
			MaxAttempts:  250,
			ProbeTimeout: 200 * time.Millisecond,
		},
		RequestTimeout: 5 * time.Second,
	}
}

// freePorts finds n distinct ports that are free at the moment.
func freePorts(t *testing.T, n int) []int {
	t.Helper()
	var ports []int
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)
		defer l.Close() //nolint:errcheck,gocritic
		ports = append(ports, l.Addr().(*net.TCPAddr).Port)
	}
	return ports
}

func groupFilter(groups ...string) ldtest.Filter {
	return ldtest.FilterFunc(func(id ldtest.TestID) bool {
		for _, g := range groups {
			if len(id) > 0 && id[0] == g {
				return true
			}
		}
		return false
	})
}

func TestSuitePassesAgainstReferenceService(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a service process for every contract test")
	}
	config := helperSuiteConfig(t, "reference")

	results := RunSessionTestSuite(config, nil, nil)

	assert.NotEmpty(t, results.Tests)
	for _, f := range results.Failures {
		t.Errorf("%s failed: %v", f.TestID, f.Errors)
	}
}

func TestSuiteDetectsServiceThatAcceptsEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a service process for every contract test")
	}
	config := helperSuiteConfig(t, "always-ok")

	results := RunSessionTestSuite(config, groupFilter("token format", "logout"), nil)

	require.NotEmpty(t, results.Tests)
	assert.False(t, results.OK())
	var failed []string
	for _, f := range results.Failures {
		failed = append(failed, f.TestID.String())
	}
	assert.Contains(t, failed, "token format/33 characters is rejected with the pattern message")
	assert.Contains(t, failed, "logout/without a session fails every time")
	assert.NotContains(t, failed, "logout/token can log in again after logout")
}

func TestSuiteFailsEveryTestWhenServiceCannotStart(t *testing.T) {
	config := helperSuiteConfig(t, "")
	config.Service.Path = "./no-such-service-executable"

	results := RunSessionTestSuite(config, groupFilter("logout"), nil)

	require.NotEmpty(t, results.Tests)
	for _, r := range results.Tests {
		if len(r.TestID) > 1 {
			assert.NotEmpty(t, r.Errors, "expected %s to fail", r.TestID)
		}
	}
}

func TestSuiteConfigDefaults(t *testing.T) {
	c := SuiteConfig{}.withDefaults()

	assert.Equal(t, servicedef.DefaultServicePort, c.Service.Port)
	assert.Equal(t, servicedef.DefaultSecret, c.Service.Secret)
	assert.Equal(t, servicedef.DefaultUpstreamPort, c.MockPort)
	assert.Equal(t, DefaultRequestTimeout, c.RequestTimeout)
}

func TestSwapCase(t *testing.T) {
	assert.Equal(t, "QAZwsxEDC", swapCase("qazWSXedc"))
	assert.Equal(t, "123-é", swapCase("123-É"))
	assert.Equal(t, "123", swapCase("123"))
}
