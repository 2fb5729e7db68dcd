package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/nordcodes/session-contract-tests/framework/harness"
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessiontests"
)

type commandParams struct {
	servicePath    string
	serviceArgs    stringList
	servicePort    int
	mockPort       int
	secret         string
	configFile     string
	hideOutput     stringList
	filters        ldtest.RegexFilters
	debug          bool
	debugAll       bool
	jUnitFile      string
	recordFailures string
	skipFile       string

	// settings that can only come from the config file
	serviceEnv     []string
	serviceDir     string
	stopTimeout    time.Duration
	readiness      harness.ReadinessPolicy
	requestTimeout time.Duration
	hidePatterns   []*regexp.Regexp
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, " ") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func (c *commandParams) Read(args []string) bool {
	return c.read(args, os.Stderr)
}

func (c *commandParams) read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.servicePath, "service", "", "executable of the service under test")
	fs.Var(&c.serviceArgs, "service-arg", "argument to pass to the service (may be repeated)")
	fs.IntVar(&c.servicePort, "service-port", servicedef.DefaultServicePort, "port that the service will be told to listen on")
	fs.IntVar(&c.mockPort, "mock-port", servicedef.DefaultUpstreamPort, "port that the upstream mock will listen on")
	fs.StringVar(&c.secret, "secret", servicedef.DefaultSecret, "API key that the service will be configured with")
	fs.StringVar(&c.configFile, "config", "", "JSON or YAML file with harness settings")
	fs.Var(&c.hideOutput, "hide-output", "regex for service output lines to leave out of the debug log (may be repeated)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to the specified path")
	fs.StringVar(&c.skipFile, "skip-from", "", "skip the tests whose IDs are listed in the specified file")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}

	if c.configFile != "" {
		config, err := loadConfigFile(c.configFile)
		if err != nil {
			fmt.Fprintf(errOut, "Error in config file: %s\n", err)
			return false
		}
		setFlags := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		if err := c.applyConfigFile(config, setFlags); err != nil {
			fmt.Fprintf(errOut, "Error in config file: %s\n", err)
			return false
		}
	}

	if c.servicePath == "" {
		fmt.Fprintln(errOut, "-service is required")
		fs.Usage()
		return false
	}
	for _, s := range c.hideOutput {
		rx, err := regexp.Compile(s)
		if err != nil {
			fmt.Fprintf(errOut, "Invalid -hide-output pattern %q: %s\n", s, err)
			return false
		}
		c.hidePatterns = append(c.hidePatterns, rx)
	}
	return true
}

func (c *commandParams) applyConfigFile(config configFile, setFlags map[string]bool) error {
	if !setFlags["service"] && config.Service.Path != "" {
		c.servicePath = config.Service.Path
	}
	if !setFlags["service-arg"] {
		c.serviceArgs = append(c.serviceArgs, config.Service.Args...)
	}
	if !setFlags["service-port"] && config.Service.Port != 0 {
		c.servicePort = config.Service.Port
	}
	if !setFlags["secret"] && config.Service.Secret != "" {
		c.secret = config.Service.Secret
	}
	if !setFlags["mock-port"] && config.MockPort != 0 {
		c.mockPort = config.MockPort
	}
	if !setFlags["hide-output"] {
		c.hideOutput = append(c.hideOutput, config.Service.HideOutput...)
	}
	if !setFlags["run"] {
		for _, p := range config.Run {
			if err := c.filters.MustMatch.Set(p); err != nil {
				return fmt.Errorf("run pattern %q: %w", p, err)
			}
		}
	}
	for _, p := range config.Skip { // skips from the file and the command line are combined
		if err := c.filters.MustNotMatch.Set(p); err != nil {
			return fmt.Errorf("skip pattern %q: %w", p, err)
		}
	}

	c.serviceEnv = config.environment()
	c.serviceDir = config.Service.Dir
	c.stopTimeout = time.Duration(config.Service.StopTimeout)
	c.readiness = harness.ReadinessPolicy{
		Interval:     time.Duration(config.Readiness.Interval),
		MaxAttempts:  config.Readiness.MaxAttempts,
		ProbeTimeout: time.Duration(config.Readiness.ProbeTimeout),
	}
	c.requestTimeout = time.Duration(config.RequestTimeout)
	return nil
}

func (c *commandParams) suiteConfig() sessiontests.SuiteConfig {
	return sessiontests.SuiteConfig{
		Service: harness.ServiceCommand{
			Path:        c.servicePath,
			Args:        c.serviceArgs,
			Port:        c.servicePort,
			Secret:      c.secret,
			Env:         c.serviceEnv,
			Dir:         c.serviceDir,
			StopTimeout: c.stopTimeout,
			HideOutput:  c.hidePatterns,
		},
		MockPort:       c.mockPort,
		Readiness:      c.readiness,
		RequestTimeout: c.requestTimeout,
	}
}
