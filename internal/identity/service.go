package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aegis-authz/aegis/internal/authz"
	"github.com/aegis-authz/aegis/internal/shared"
)

// Service adopts identity snapshots from the authentication collaborator and
// hands out resolvers bound to them. It owns no identity state itself; the
// store holds the current snapshot per session and every resolver is derived
// fresh from whatever snapshot is current.
type Service struct {
	store *Store
	cfg   authz.Config
}

// NewService constructs a Service over the snapshot store and the static
// decision configuration.
func NewService(store *Store, cfg authz.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Ingest adopts a snapshot wholesale and returns the session ID it is bound
// to, minting one when the collaborator did not supply it.
func (s *Service) Ingest(ctx context.Context, snap Snapshot) (string, error) {
	sessionID := strings.TrimSpace(snap.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := s.store.Put(ctx, sessionID, snap.ToIdentity()); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Revoke drops the snapshot for the session (logout).
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// ResolverFor returns a resolver over the session's current snapshot. An
// empty or unknown session yields a resolver that denies everything; only
// transport failures surface as errors.
func (s *Service) ResolverFor(ctx context.Context, sessionID string) (*authz.Resolver, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return authz.NewResolver(s.cfg, nil), nil
	}
	id, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSnapshotUnavailable, err)
	}
	return authz.NewResolver(s.cfg, id), nil
}

// Config exposes the static decision configuration.
func (s *Service) Config() authz.Config {
	return s.cfg
}
