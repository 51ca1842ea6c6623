package models

import (
	"time"
)

type HistoryType string

const (
	HistoryTypePerson HistoryType = "person"
	HistoryTypeGroup  HistoryType = "group"
)

// TransactionHistory is an immutable ledger entry. Amount is the signed delta
// applied, so BalanceAfter - BalanceBefore == Amount.
type TransactionHistory struct {
	ID            string      `json:"id" db:"id"`
	MemberID      *string     `json:"memberId,omitempty" db:"member_id"`
	GroupID       *string     `json:"groupId,omitempty" db:"group_id"`
	SessionID     *string     `json:"sessionId,omitempty" db:"session_id"`
	Type          HistoryType `json:"type" db:"type"`
	Amount        int64       `json:"amount" db:"amount"` // in smallest currency unit
	BalanceBefore int64       `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  int64       `json:"balanceAfter" db:"balance_after"`
	Reason        string      `json:"reason" db:"reason"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}

type HistoryFilter struct {
	Type      HistoryType
	MemberID  string
	GroupID   string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

type HistoryPage struct {
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
	TotalPages   int                  `json:"totalPages"`
	TotalCount   int                  `json:"totalCount"`
	Transactions []TransactionHistory `json:"transactions"`
}
