package authz

import "time"

// Identity is the authenticated principal snapshot. It is supplied whole by
// the authentication collaborator on login/refresh and replaced wholesale on
// every identity change; the engine never mutates it.
type Identity struct {
	ID                string
	CoarseRole        string
	TenantID          string
	Memberships       []Membership
	CustomPermissions []string
}

// Membership is one group affiliation. Group and role names are free text;
// matching against them is case-insensitive and substring based.
type Membership struct {
	GroupID   string
	GroupName string
	RoleLabel string
	// Permissions maps a permission or feature key to its granted effect.
	// Values are either a level name ("read".."manage") or a plain
	// allow/deny marker; anything other than an explicit denial counts as
	// a grant. Grants only add capability, they never revoke one.
	Permissions map[string]string
	// AssignedAt is informational and does not affect resolution order.
	AssignedAt time.Time
}

// granting reports whether a membership permission value is a grant.
func granting(effect string) bool {
	switch normalize(effect) {
	case "", "none", "deny", "false", "0":
		return false
	default:
		return true
	}
}
