// Package ldtest contains a test runner framework that is similar to Go's testing package,
// but is run as regular Go application code rather than Go tests. It adds scoped cleanup
// (T.Defer), per-test captured debug output, test filtering, and result reporting to the
// console and to JUnit XML.
package ldtest
