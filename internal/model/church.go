package model

import "time"

// Church is a congregation. A church with a ParentID is a branch of its
// parent. Each church is the unit of data isolation: every member, visitor,
// ministry, activity and prayer request belongs to exactly one church.
type Church struct {
	ID        uint64    `json:"id"`
	ParentID  *uint64   `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	CEP       string    `json:"cep,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Church roles carried by a membership.
const (
	RoleAdmin     = "ADMIN"
	RolePastor    = "PASTOR"
	RoleLeader    = "LEADER"
	RoleSecretary = "SECRETARY"
)

// Membership links a user to a church they may act within.
type Membership struct {
	UserID     uint64 `json:"user_id"`
	ChurchID   uint64 `json:"church_id"`
	ChurchName string `json:"church_name"`
	Role       string `json:"role"`
}

// ActiveChurch is the church currently selected for a user's session.
type ActiveChurch struct {
	ChurchID    uint64   `json:"church_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// SetActiveChurchRequest is the body of POST /v1/churches/active.
type SetActiveChurchRequest struct {
	ChurchID uint64 `json:"church_id"`
}

// SetActiveChurchResponse is returned after a successful switch.
type SetActiveChurchResponse struct {
	Message      string       `json:"message"`
	ActiveChurch ActiveChurch `json:"active_church"`
}

// BranchInput creates a branch under the active church.
type BranchInput struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
	CEP   string `json:"cep"`
}

// PermissionsFor returns the permission summary for a church role.
func PermissionsFor(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{"members:write", "ministries:write", "activities:write", "visitors:write", "prayers:write", "branches:write", "dashboard:read"}
	case RolePastor:
		return []string{"members:write", "ministries:write", "activities:write", "visitors:write", "prayers:write", "dashboard:read"}
	case RoleSecretary:
		return []string{"members:write", "visitors:write", "prayers:write", "dashboard:read"}
	case RoleLeader:
		return []string{"activities:write", "visitors:write", "prayers:write"}
	default:
		return []string{}
	}
}

// Can reports whether the active church role grants perm.
func (a ActiveChurch) Can(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
