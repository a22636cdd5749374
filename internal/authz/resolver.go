package authz

import "strings"

// Config carries the static decision inputs shared by every resolver. It is
// built once at startup and passed in explicitly; there is no module-level
// provider state.
type Config struct {
	Matrix  Matrix
	Catalog *Catalog
}

// DefaultConfig returns the built-in matrix and predicate catalog.
func DefaultConfig() Config {
	return Config{Matrix: DefaultMatrix(), Catalog: DefaultCatalog()}
}

// AccessContext optionally scopes a resource access check to a tenant or an
// owning user.
type AccessContext struct {
	TenantID string
	UserID   string
}

// DataFilters scope a data access check. Date and custom entries are query
// narrowing only; the decision depends on the tenant and user fields.
type DataFilters struct {
	TenantID string
	UserID   string
	DateFrom string
	DateTo   string
	Custom   map[string]string
}

// Resolver answers authorization questions for one identity snapshot. All
// derived permission state is computed in a single pass at construction, so
// replacing the identity means building a new resolver; consumers can never
// observe a half-updated snapshot. Every operation is a pure read: a nil
// identity resolves to the most restrictive answer, never an error.
//
// Note: because membership evidence fully overrides the coarse-role
// fallback, an identity whose memberships sit in unrelated departments can
// answer false to predicates its coarse role alone would satisfy.
type Resolver struct {
	cfg     Config
	id      *Identity
	granted map[string]struct{}
}

// NewResolver derives the permission state for the snapshot. A nil identity
// yields a resolver that denies everything.
func NewResolver(cfg Config, id *Identity) *Resolver {
	r := &Resolver{cfg: cfg, id: id}
	if id == nil {
		return r
	}
	r.granted = make(map[string]struct{})
	for _, key := range id.CustomPermissions {
		if key = normalize(key); key != "" {
			r.granted[key] = struct{}{}
		}
	}
	for _, m := range id.Memberships {
		for key, effect := range m.Permissions {
			if !granting(effect) {
				continue
			}
			if key = normalize(key); key != "" {
				r.granted[key] = struct{}{}
			}
		}
	}
	for key, roles := range cfg.Matrix {
		if roles.Contains(id.CoarseRole) {
			r.granted[key] = struct{}{}
		}
	}
	return r
}

// Identity returns the bound snapshot, nil when unauthenticated.
func (r *Resolver) Identity() *Identity {
	if r == nil {
		return nil
	}
	return r.id
}

// HasPermission reports whether the key is in the role-derived set or the
// custom permission grants.
func (r *Resolver) HasPermission(key string) bool {
	if r == nil || r.id == nil {
		return false
	}
	_, ok := r.granted[normalize(key)]
	return ok
}

// HasResourcePermission checks the coarse role directly against the
// resource-action matrix.
func (r *Resolver) HasResourcePermission(resource, action string) bool {
	if r == nil || r.id == nil {
		return false
	}
	return r.cfg.Matrix.Allows(r.id.CoarseRole, resource, action)
}

// HasAnyPermission is the logical OR over HasPermission.
func (r *Resolver) HasAnyPermission(keys ...string) bool {
	if r == nil || r.id == nil {
		return false
	}
	for _, key := range keys {
		if r.HasPermission(key) {
			return true
		}
	}
	return false
}

// HasAllPermissions is the logical AND over HasPermission. The empty set is
// satisfied for any authenticated identity.
func (r *Resolver) HasAllPermissions(keys ...string) bool {
	if r == nil || r.id == nil {
		return false
	}
	for _, key := range keys {
		if !r.HasPermission(key) {
			return false
		}
	}
	return true
}

// CanAccessResource decides contextual access: platform admins bypass all
// checks; a supplied tenant or user context must match the identity's own;
// with no context the decision falls through to read permission on the
// resource.
func (r *Resolver) CanAccessResource(resource string, ctx *AccessContext) bool {
	if r == nil || r.id == nil {
		return false
	}
	if r.isPlatformAdmin() {
		return true
	}
	if ctx != nil && (ctx.TenantID != "" || ctx.UserID != "") {
		if ctx.TenantID != "" && ctx.TenantID != r.id.TenantID {
			return false
		}
		if ctx.UserID != "" && ctx.UserID != r.id.ID {
			return false
		}
		return true
	}
	return r.HasResourcePermission(resource, LevelRead.String())
}

// PermissionLevel returns the highest action the coarse role satisfies for
// the resource, scanning from manage downward. LevelNone when nothing is
// granted or the resource is unknown.
func (r *Resolver) PermissionLevel(resource string) Level {
	if r == nil || r.id == nil {
		return LevelNone
	}
	for _, level := range LevelsDescending() {
		if r.HasResourcePermission(resource, level.String()) {
			return level
		}
	}
	return LevelNone
}

// HighestPermissionLevel is the multi-group variant: the maximum of every
// membership's own permission entry for the feature, combined with the
// matrix-derived level. Partial grants never mask a stronger one.
func (r *Resolver) HighestPermissionLevel(feature string) Level {
	if r == nil || r.id == nil {
		return LevelNone
	}
	highest := r.PermissionLevel(feature)
	key := normalize(feature)
	for _, m := range r.id.Memberships {
		for perm, effect := range m.Permissions {
			if normalize(perm) != key {
				continue
			}
			highest = MaxLevel(highest, ParseLevel(effect))
		}
	}
	return highest
}

// HasGroupRole reports whether some membership's group name and role label
// both contain the given substrings, case-insensitively.
func (r *Resolver) HasGroupRole(groupHint, roleHint string) bool {
	if r == nil || r.id == nil {
		return false
	}
	group := normalize(groupHint)
	role := normalize(roleHint)
	for _, m := range r.id.Memberships {
		if containsFold(m.GroupName, group) && containsFold(m.RoleLabel, role) {
			return true
		}
	}
	return false
}

// Holds evaluates a catalog predicate against the bound identity.
func (r *Resolver) Holds(dept Department, sen Seniority) bool {
	if r == nil || r.id == nil {
		return false
	}
	return r.cfg.Catalog.Holds(r.id, dept, sen)
}

// EvaluateCatalog runs every catalog predicate against the bound identity.
func (r *Resolver) EvaluateCatalog() []PredicateResult {
	if r == nil || r.id == nil {
		return nil
	}
	return r.cfg.Catalog.Evaluate(r.id)
}

// IsMultiGroupUser reports whether the identity holds more than one
// membership.
func (r *Resolver) IsMultiGroupUser() bool {
	return r != nil && r.id != nil && len(r.id.Memberships) > 1
}

// CanAccessDataWithFilters applies the role-tiered data scoping rules:
// platform admins see everything; tenant admins are confined to their own
// tenant; tenant users and end customers to their own records; any other
// role falls back to read permission on the resource.
func (r *Resolver) CanAccessDataWithFilters(resource string, filters *DataFilters) bool {
	if r == nil || r.id == nil {
		return false
	}
	switch {
	case r.isPlatformAdmin():
		return true
	case r.hasCoarseRole(RoleTenantAdmin):
		return filters == nil || filters.TenantID == "" || filters.TenantID == r.id.TenantID
	case r.hasCoarseRole(RoleTenantUser), r.hasCoarseRole(RoleEndCustomer):
		return filters == nil || filters.UserID == "" || filters.UserID == r.id.ID
	default:
		return r.HasResourcePermission(resource, LevelRead.String())
	}
}

func (r *Resolver) isPlatformAdmin() bool {
	return r.hasCoarseRole(RolePlatformAdmin)
}

func (r *Resolver) hasCoarseRole(role string) bool {
	if r.id == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(r.id.CoarseRole), role)
}

func containsFold(haystack, foldedNeedle string) bool {
	if foldedNeedle == "" {
		return true
	}
	return strings.Contains(normalize(haystack), foldedNeedle)
}
