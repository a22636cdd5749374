package identity

import (
	"time"

	"github.com/aegis-authz/aegis/internal/authz"
)

// Snapshot is the wire form of a user identity as delivered by the
// authentication collaborator. It always arrives complete; a login, token
// refresh, or tenant switch replaces the previous snapshot wholesale.
type Snapshot struct {
	SessionID         string             `json:"sessionId" validate:"omitempty,max=128"`
	UserID            string             `json:"userId" validate:"required,max=128"`
	CoarseRole        string             `json:"coarseRole" validate:"omitempty,max=64"`
	TenantID          string             `json:"tenantId" validate:"omitempty,max=128"`
	Memberships       []MembershipRecord `json:"memberships" validate:"dive"`
	CustomPermissions []string           `json:"customPermissions" validate:"dive,max=128"`
}

// MembershipRecord is one group affiliation on the wire.
type MembershipRecord struct {
	GroupID     string            `json:"groupId" validate:"required,max=128"`
	GroupName   string            `json:"groupName" validate:"max=256"`
	RoleLabel   string            `json:"roleLabel" validate:"max=256"`
	Permissions map[string]string `json:"permissions"`
	AssignedAt  time.Time         `json:"assignedAt"`
}

// ToIdentity maps the wire snapshot onto the closed engine record.
func (s Snapshot) ToIdentity() *authz.Identity {
	id := &authz.Identity{
		ID:                s.UserID,
		CoarseRole:        s.CoarseRole,
		TenantID:          s.TenantID,
		CustomPermissions: append([]string(nil), s.CustomPermissions...),
	}
	if len(s.Memberships) > 0 {
		id.Memberships = make([]authz.Membership, 0, len(s.Memberships))
		for _, m := range s.Memberships {
			id.Memberships = append(id.Memberships, authz.Membership{
				GroupID:     m.GroupID,
				GroupName:   m.GroupName,
				RoleLabel:   m.RoleLabel,
				Permissions: m.Permissions,
				AssignedAt:  m.AssignedAt,
			})
		}
	}
	return id
}
