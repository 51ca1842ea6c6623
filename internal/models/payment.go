package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusAccepted PaymentStatus = "accepted"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment is a member's request to fund their balance through a team wallet.
type Payment struct {
	ID         string        `json:"id" db:"id"`
	MemberID   string        `json:"memberId" db:"member_id"`
	GroupID    string        `json:"groupId" db:"group_id"`
	Amount     int64         `json:"amount" db:"amount"`
	Date       time.Time     `json:"date" db:"date"`
	Note       string        `json:"note,omitempty" db:"note"`
	Status     PaymentStatus `json:"status" db:"status"`
	UpdateByID string        `json:"updateById" db:"update_by_id"`
	UpdateTime time.Time     `json:"updateTime" db:"update_time"`
}

type PaymentFilter struct {
	MemberID string
	Status   PaymentStatus
	Page     int
	Limit    int
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type PaymentPage struct {
	Data       []Payment  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
