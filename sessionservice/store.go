package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrSessionExists is returned by SessionStore.Create if the token already has a session.
	ErrSessionExists = errors.New("session already exists")

	// ErrNoSession is returned by SessionStore.Delete if the token has no session.
	ErrNoSession = errors.New("no session for token")
)

// Session is the state kept for a logged-in token.
type Session struct {
	Token     string
	CreatedAt time.Time
}

// SessionStore holds the set of active sessions. Create and Delete must be atomic with respect
// to each other for the same token, so that at most one session per token can ever exist, even
// when several service instances share a store.
type SessionStore interface {
	// Create adds a session, or returns ErrSessionExists.
	Create(ctx context.Context, session Session) error

	// Exists reports whether the token has a session.
	Exists(ctx context.Context, token string) (bool, error)

	// Delete removes a session, or returns ErrNoSession.
	Delete(ctx context.Context, token string) error

	// Close releases any resources held by the store.
	Close() error
}

// OpenStore creates a SessionStore from a URL:
//
//	memory:                                  in-process map (the default)
//	redis://[:password@]host:port[/db]       Redis, one key per session
//	consul://host:port[/prefix]              Consul KV, one key per session
//	dynamodb://table[?region=R&endpoint=E]   DynamoDB table with string hash key "token"
func OpenStore(storeURL string) (SessionStore, error) {
	if storeURL == "" || storeURL == "memory" {
		storeURL = "memory:"
	}
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL %q: %w", storeURL, err)
	}
	switch u.Scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "redis", "rediss":
		return NewRedisStore(storeURL)
	case "consul":
		prefix := strings.Trim(u.Path, "/")
		return NewConsulStore(u.Host, prefix)
	case "dynamodb":
		q := u.Query()
		return NewDynamoDBStore(u.Host, q.Get("region"), q.Get("endpoint"))
	default:
		return nil, fmt.Errorf("unsupported store type %q", u.Scheme)
	}
}
