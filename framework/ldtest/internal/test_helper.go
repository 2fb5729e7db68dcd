// Package internal contains test helpers for ldtest.
package internal

// RunAction is used only in unit tests, but exported because it has to be in a separate package
// for stacktrace filtering to treat it as non-ldtest code.
func RunAction(action func()) {
	action()
}
