package authcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
)

// Cache stores verified principals in Redis keyed by a digest of the raw
// token, so repeated requests with the same bearer token skip the identity
// provider round trip. Entries live until the token expires, capped by maxTTL
// so a revoked token stops working quickly.
type Cache struct {
	client *redis.Client
	prefix string
	maxTTL time.Duration
}

// New creates a principal cache. Prefix may be empty.
func New(client *redis.Client, prefix string, maxTTL time.Duration) *Cache {
	if prefix == "" {
		prefix = "principal:"
	}
	if maxTTL <= 0 {
		maxTTL = 5 * time.Minute
	}
	return &Cache{client: client, prefix: prefix, maxTTL: maxTTL}
}

// key hashes the token; raw credential material never becomes a Redis key.
func (c *Cache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached principal for token, or nil on a miss.
func (c *Cache) Get(ctx context.Context, token string) (*auth.Principal, error) {
	b, err := c.client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var p auth.Principal
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Put caches the principal until the token's expiry, capped by maxTTL.
// Tokens already expired (or with unknown expiry) are not cached.
func (c *Cache) Put(ctx context.Context, token string, p *auth.Principal, expiry time.Time) error {
	ttl := time.Until(expiry)
	if expiry.IsZero() || ttl <= 0 {
		return nil
	}
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(token), b, ttl).Err()
}
