package models

import "time"

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// CanManageMembers - владелец и администраторы могут добавлять и удалять участников.
func (r MemberRole) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Organization struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int       `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Role заполняется при выборке организаций конкретного пользователя.
	Role    MemberRole `json:"role,omitempty" db:"-"`
	Members []Member   `json:"members,omitempty" db:"-"`
}

type Member struct {
	OrganizationID int        `json:"organization_id" db:"organization_id"`
	UserID         int        `json:"user_id" db:"user_id"`
	Role           MemberRole `json:"role" db:"role"`
	JoinedAt       time.Time  `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}
