// Package sessiontests contains the contract tests for the session protocol.
//
// Every test acquires its own environment with NewSessionEnvironment: the upstream mock is
// started with default stubs, a fresh service process is launched and pointed at it, and both
// are released when the test scope exits. No state survives from one test to the next, so the
// tests can be filtered and run in any combination.
package sessiontests
