// Package servicedef contains definitions for the session protocol that a service under test
// must implement, and for the configuration surface through which the test harness controls it.
//
// The package is used by the test harness, and is also imported by the reference session
// service in this repository.
package servicedef
