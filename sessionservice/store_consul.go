package sessionservice

import (
	"context"
	"strconv"

	consul "github.com/hashicorp/consul/api"
)

const defaultConsulPrefix = "sessions"

// ConsulStore keeps each session under its own KV key. Creation uses a check-and-set with index
// 0, which only succeeds if the key does not exist yet.
type ConsulStore struct {
	consul *consul.Client
	prefix string
}

// NewConsulStore creates a ConsulStore. An empty address means the Consul client default, which
// also honors CONSUL_HTTP_ADDR.
func NewConsulStore(address, prefix string) (*ConsulStore, error) {
	config := consul.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	if prefix == "" {
		prefix = defaultConsulPrefix
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ConsulStore{consul: client, prefix: prefix}, nil
}

func (c *ConsulStore) key(token string) string {
	return c.prefix + "/" + token
}

func (c *ConsulStore) Create(ctx context.Context, session Session) error {
	pair := &consul.KVPair{
		Key:         c.key(session.Token),
		Value:       []byte(strconv.FormatInt(session.CreatedAt.UnixMilli(), 10)),
		ModifyIndex: 0,
	}
	ok, _, err := c.consul.KV().CAS(pair, (&consul.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (c *ConsulStore) Exists(ctx context.Context, token string) (bool, error) {
	pair, _, err := c.consul.KV().Get(c.key(token), (&consul.QueryOptions{RequireConsistent: true}).WithContext(ctx))
	if err != nil {
		return false, err
	}
	return pair != nil, nil
}

func (c *ConsulStore) Delete(ctx context.Context, token string) error {
	kv := c.consul.KV()
	pair, _, err := kv.Get(c.key(token), (&consul.QueryOptions{RequireConsistent: true}).WithContext(ctx))
	if err != nil {
		return err
	}
	if pair == nil {
		return ErrNoSession
	}
	ok, _, err := kv.DeleteCAS(pair, (&consul.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if !ok { // deleted or recreated by someone else since we read it
		return ErrNoSession
	}
	return nil
}

func (c *ConsulStore) Close() error { return nil }

// Reset deletes every session under the store's prefix.
func (c *ConsulStore) Reset() error {
	_, err := c.consul.KV().DeleteTree(c.prefix+"/", nil)
	return err
}
