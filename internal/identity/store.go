package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aegis-authz/aegis/internal/authz"
)

// Store keeps identity snapshots in Redis keyed by session ID. A snapshot is
// written in a single SET so readers adopt it atomically; expiry is handled
// by the key TTL, there is no background sweeper.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store with the given snapshot lifetime.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Put replaces the snapshot for the session wholesale.
func (s *Store) Put(ctx context.Context, sessionID string, id *authz.Identity) error {
	payload, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err()
}

// Get loads the snapshot for the session. A missing or expired session is
// not an error: it returns nil, and callers resolve restrictively.
func (s *Store) Get(ctx context.Context, sessionID string) (*authz.Identity, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var id authz.Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Delete drops the snapshot on logout.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured snapshot lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(sessionID string) string {
	return "identity:" + sessionID
}
