package authz

import "strings"

// Coarse role tags carried on an identity. These are the legacy single-role
// labels; membership evidence takes priority over them wherever both exist.
const (
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleTenantAdmin   = "TENANT_ADMIN"
	RoleTenantUser    = "TENANT_USER"
	RoleEndCustomer   = "END_CUSTOMER"
)

// RoleSet is a set of coarse role tags with case-insensitive membership.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from the given tags.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role tag is in the set.
func (s RoleSet) Contains(role string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(role))]
	return ok
}

// Matrix is the static resource-action table: "<resource>.<action>" keys
// mapped to the coarse roles authorized for that pair. It is the fallback
// layer, consulted when membership evidence is unavailable or when checking
// the coarse role directly.
type Matrix map[string]RoleSet

// MatrixKey builds the lookup key for a resource/action pair.
func MatrixKey(resource, action string) string {
	return strings.ToLower(strings.TrimSpace(resource)) + "." + strings.ToLower(strings.TrimSpace(action))
}

// AllowedRoles returns the roles authorized for the pair. Unknown keys
// return the empty set: no grant, not an error.
func (m Matrix) AllowedRoles(resource, action string) RoleSet {
	if m == nil {
		return RoleSet{}
	}
	set, ok := m[MatrixKey(resource, action)]
	if !ok {
		return RoleSet{}
	}
	return set
}

// Allows reports whether the coarse role may perform action on resource.
func (m Matrix) Allows(role, resource, action string) bool {
	if role == "" {
		return false
	}
	return m.AllowedRoles(resource, action).Contains(role)
}

// DefaultMatrix returns the built-in resource-action table. Loaded once at
// startup; the engine never mutates it.
func DefaultMatrix() Matrix {
	adminOnly := NewRoleSet(RolePlatformAdmin)
	admins := NewRoleSet(RolePlatformAdmin, RoleTenantAdmin)
	tenantStaff := NewRoleSet(RolePlatformAdmin, RoleTenantAdmin, RoleTenantUser)
	everyone := NewRoleSet(RolePlatformAdmin, RoleTenantAdmin, RoleTenantUser, RoleEndCustomer)

	return Matrix{
		"content.read":   everyone,
		"content.create": tenantStaff,
		"content.update": tenantStaff,
		"content.delete": admins,
		"content.manage": admins,

		"media.read":   everyone,
		"media.create": tenantStaff,
		"media.update": tenantStaff,
		"media.delete": admins,
		"media.manage": admins,

		"orders.read":   everyone,
		"orders.create": everyone,
		"orders.update": tenantStaff,
		"orders.delete": admins,
		"orders.manage": admins,

		"customers.read":   tenantStaff,
		"customers.create": tenantStaff,
		"customers.update": tenantStaff,
		"customers.delete": admins,
		"customers.manage": admins,

		"analytics.read":   tenantStaff,
		"analytics.create": admins,
		"analytics.update": admins,
		"analytics.delete": adminOnly,
		"analytics.manage": admins,

		"reports.read":   tenantStaff,
		"reports.create": tenantStaff,
		"reports.update": admins,
		"reports.delete": admins,
		"reports.manage": admins,

		"users.read":   admins,
		"users.create": admins,
		"users.update": admins,
		"users.delete": adminOnly,
		"users.manage": adminOnly,

		"groups.read":   admins,
		"groups.create": admins,
		"groups.update": admins,
		"groups.delete": adminOnly,
		"groups.manage": adminOnly,

		"tenants.read":   adminOnly,
		"tenants.create": adminOnly,
		"tenants.update": adminOnly,
		"tenants.delete": adminOnly,
		"tenants.manage": adminOnly,

		"settings.read":   admins,
		"settings.create": admins,
		"settings.update": admins,
		"settings.delete": adminOnly,
		"settings.manage": adminOnly,
	}
}
