package authz

import "testing"

func TestBindingStartsUnauthenticated(t *testing.T) {
	b := NewBinding(DefaultConfig())
	if b.Resolver().HasResourcePermission("content", "read") {
		t.Fatal("fresh binding must deny everything")
	}
}

func TestBindingReplaceSwapsWholeSnapshot(t *testing.T) {
	b := NewBinding(DefaultConfig())

	b.Replace(&Identity{ID: "u1", CoarseRole: RoleTenantUser})
	if !b.Resolver().HasResourcePermission("content", "read") {
		t.Fatal("expected tenant user grant after replace")
	}

	b.Replace(&Identity{ID: "u1", CoarseRole: RoleEndCustomer})
	r := b.Resolver()
	if r.HasResourcePermission("customers", "read") {
		t.Fatal("old role must not leak after replacement")
	}
	if !r.HasResourcePermission("orders", "create") {
		t.Fatal("new role grants must apply after replacement")
	}

	b.Replace(nil)
	if b.Resolver().HasResourcePermission("content", "read") {
		t.Fatal("logout must deny everything")
	}
}

func TestBindingResolverIsStableSnapshot(t *testing.T) {
	b := NewBinding(DefaultConfig())
	b.Replace(&Identity{ID: "u1", CoarseRole: RoleTenantUser})

	held := b.Resolver()
	b.Replace(nil)

	// A resolver obtained before the swap keeps answering from its own
	// snapshot; it can never observe a half-updated identity.
	if !held.HasResourcePermission("content", "read") {
		t.Fatal("held resolver must keep its snapshot")
	}
}
