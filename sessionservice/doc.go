// Package sessionservice is the reference implementation of the session protocol.
//
// A session is keyed by a 32-character token. LOGIN creates it after the upstream /auth call
// succeeds, ACTION delegates to the upstream /doAction call while the session exists, and LOGOUT
// removes it. Every outcome, including invalid input and upstream failures, is reported as an
// HTTP 200 response whose JSON body has a "result" of "OK" or "ERROR".
//
// Requests for the same token are serialized, so that two concurrent LOGINs cannot both create a
// session. Session state lives in a SessionStore, which can be in memory or in Redis, Consul or
// DynamoDB.
package sessionservice
