// Package framework contains the low-level implementation of test harness infrastructure
// that is independent of the session protocol. The base package contains shared types such
// as Logger; other components are in the subpackages harness, ldtest, helpers and opt.
//
// The general model is:
//
// 1. The test harness launches the service under test as a child process, pointed at a mock
// server that stands in for the service's own upstream dependencies, and waits until the
// service answers on its root URL.
//
// 2. Tests talk to the service over HTTP and inspect what the service sent to the mock.
//
// 3. There is a general notion of a test scope which is similar to Go's testing.T, allowing
// fixtures to be released through deferred cleanups and failures to be accumulated per test.
//
// The domain-specific code that knows what is being tested is responsible for the requests
// sent to the service, the stub responses of the mock, and the assertions.
package framework
