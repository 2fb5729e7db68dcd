package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/ldtest"
	"github.com/nordcodes/session-contract-tests/sessiontests"
)

func main() {
	fmt.Println("session-contract-tests")

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*ldtest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	config := params.suiteConfig()
	if params.debugAll {
		config.DebugLogger = framework.WriterLogger(os.Stdout)
	}

	fmt.Printf("Service under test: %s\n", config.Service)
	fmt.Printf("Service port: %d, upstream mock port: %d\n\n", config.Service.Port, config.MockPort)
	params.filters.Describe(os.Stdout)

	var testLogger ldtest.TestLogger
	consoleLogger := ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		properties := map[string]string{
			"service":      config.Service.String(),
			"service-port": strconv.Itoa(config.Service.Port),
			"mock-port":    strconv.Itoa(config.MockPort),
		}
		testLogger = &ldtest.MultiTestLogger{Loggers: []ldtest.TestLogger{
			consoleLogger,
			ldtest.NewJUnitTestLogger(params.jUnitFile, properties, params.filters),
		}}
	}

	results := sessiontests.RunSessionTestSuite(config, params.filters, testLogger)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %w", err)
	}

	if params.recordFailures != "" {
		if err := recordFailures(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func recordFailures(path string, results ldtest.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create failures file: %w", err)
	}
	defer func() { _ = f.Close() }()
	for _, test := range results.Failures {
		if len(test.TestID) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(f, test.TestID); err != nil {
			return fmt.Errorf("cannot write failures file: %w", err)
		}
	}
	return nil
}

// loadSuppressions adds every line of the -skip-from file as a literal -skip pattern, so that a
// file written by -record-failures can be fed back in.
func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "/")
		for i, p := range parts {
			parts[i] = "^" + regexp.QuoteMeta(p) + "$"
		}
		if err := params.filters.MustNotMatch.Set(strings.Join(parts, "/")); err != nil {
			return fmt.Errorf("cannot parse suppression: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}
