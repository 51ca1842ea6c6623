package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleLead  Role = "lead"
	RoleAdmin Role = "admin"
)

// Member is a club member. Balance is in the smallest currency unit and is only
// changed through the ledger.
type Member struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Balance   int64      `json:"balance" db:"balance"`
	Role      Role       `json:"role" db:"role"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Actor is the authenticated caller as supplied by the auth middleware.
type Actor struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// PaymentSums holds the pending and accepted payment totals of one member.
type PaymentSums struct {
	Pending  int64 `json:"pending" db:"pending"`
	Accepted int64 `json:"accepted" db:"accepted"`
}

type MemberBalance struct {
	MemberID      string      `json:"memberId" db:"member_id"`
	Name          string      `json:"name" db:"name"`
	Balance       int64       `json:"balance" db:"balance"`
	StatusAmounts PaymentSums `json:"statusAmounts"`
}
