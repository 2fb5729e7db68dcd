// Package harness contains the process-level infrastructure of the test harness: starting local
// HTTP listeners, recording the requests they receive, and supervising the service under test as
// a child process.
//
// It contains no protocol-specific test logic.
package harness
