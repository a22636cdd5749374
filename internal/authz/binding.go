package authz

import "sync/atomic"

// Binding owns the current identity slot for a consumer scope (one UI
// session, one CLI invocation). Replacing the snapshot swaps in a fully
// derived resolver in one atomic store, so readers observe either the old
// state or the new state, never a mixture.
type Binding struct {
	cfg     Config
	current atomic.Pointer[Resolver]
}

// NewBinding creates a binding with no identity: every question resolves
// restrictively until Replace is called.
func NewBinding(cfg Config) *Binding {
	b := &Binding{cfg: cfg}
	b.current.Store(NewResolver(cfg, nil))
	return b
}

// Replace adopts a new identity snapshot wholesale. Pass nil on logout.
func (b *Binding) Replace(id *Identity) {
	b.current.Store(NewResolver(b.cfg, id))
}

// Resolver returns the resolver for the current snapshot, never nil.
func (b *Binding) Resolver() *Resolver {
	return b.current.Load()
}
