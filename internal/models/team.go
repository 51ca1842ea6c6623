package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Team is a group wallet: a pooled balance plus the shuttlecock inventory bought
// from it.
type Team struct {
	ID                string      `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	Amount            int64       `json:"amount" db:"amount"`
	NumberShuttlecock int64       `json:"numberShuttlecock" db:"number_shuttlecock"`
	ShuttlecockFee    int64       `json:"shuttlecockFee" db:"shuttlecock_fee"`
	CourtFee          int64       `json:"courtFee" db:"court_fee"`
	Note              string      `json:"note,omitempty" db:"note"`
	UpdateByID        string      `json:"updateById" db:"update_by_id"`
	UpdateTime        time.Time   `json:"updateTime" db:"update_time"`
	Members           TeamMembers `json:"members" db:"members"`
}

type TeamMember struct {
	MemberID string    `json:"memberId" validate:"required"`
	IsFixed  bool      `json:"isFixed"`
	IsActive bool      `json:"isActive"`
	JoinedAt time.Time `json:"joinedAt"`
}

// TeamMembers is stored as a JSONB document on the team row.
type TeamMembers []TeamMember

func (m TeamMembers) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *TeamMembers) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}
