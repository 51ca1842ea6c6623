package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type CourtType string

const (
	CourtTypeFixed  CourtType = "fixed"
	CourtTypeCasual CourtType = "casual"
)

type SessionStatus string

const (
	SessionStatusInit      SessionStatus = "init"
	SessionStatusEdited    SessionStatus = "edited"
	SessionStatusConfirmed SessionStatus = "confirmed"
	SessionStatusDone      SessionStatus = "done"
)

// Session is one badminton court booking. Participants are embedded and replaced
// as a whole on every edit.
type Session struct {
	ID                string        `json:"id" db:"id"`
	CourtType         CourtType     `json:"courtType" db:"court_type"`
	Time              time.Time     `json:"time" db:"time"`
	StartTime         string        `json:"startTime" db:"start_time"`
	EndTime           string        `json:"endTime" db:"end_time"`
	Location          string        `json:"location" db:"location"`
	CourtFee          int64         `json:"courtFee" db:"court_fee"`
	ShuttlecockFee    int64         `json:"shuttlecockFee" db:"shuttlecock_fee"`
	ExtraFee          int64         `json:"extraFee" db:"extra_fee"`
	NumberShuttlecock int64         `json:"numberShuttlecock" db:"number_shuttlecock"`
	ParticipantsCount int           `json:"participantsCount" db:"participants_count"`
	Participants      Participants  `json:"participants" db:"participants"`
	Note              string        `json:"note,omitempty" db:"note"`
	Status            SessionStatus `json:"status" db:"status"`
	UpdateTime        time.Time     `json:"updateTime" db:"update_time"`
	UpdateByID        string        `json:"updateById" db:"update_by_id"`
	GroupID           string        `json:"groupId" db:"group_id"`
}

// FeeFlags says which of the three shared fees apply to a participant.
type FeeFlags struct {
	IsCourtFeeApplied       bool `json:"isCourtFeeApplied"`
	IsShuttlecockFeeApplied bool `json:"isShuttlecockFeeApplied"`
	IsExtraFeeApplied       bool `json:"isExtraFeeApplied"`
}

// FeeShares are the priced shares assigned by the allocator.
type FeeShares struct {
	CourtFee       int64 `json:"courtFee"`
	ShuttlecockFee int64 `json:"shuttlecockFee"`
	ExtraFee       int64 `json:"extraFee"`
}

func (s FeeShares) Sum() int64 {
	return s.CourtFee + s.ShuttlecockFee + s.ExtraFee
}

// SubParticipant is a named guest brought by a member. Guests never carry a
// modified fee; their shares are charged to the hosting member.
type SubParticipant struct {
	Name string `json:"name"`
	FeeFlags
	FeeShares
}

type Participant struct {
	MemberID string `json:"memberId"`
	FeeFlags
	FeeShares
	ModifiedFee     int64            `json:"modifiedFee"`
	SubParticipants []SubParticipant `json:"subParticipants"`
}

// TotalFee is what the hosting member pays at settlement.
func (p Participant) TotalFee() int64 {
	total := p.FeeShares.Sum() + p.ModifiedFee
	for _, sub := range p.SubParticipants {
		total += sub.FeeShares.Sum()
	}
	return total
}

// Participants is stored as a JSONB document on the session row.
type Participants []Participant

func (p Participants) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

func (p *Participants) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, p)
}

func (p Participants) SumModifiedFee() int64 {
	var sum int64
	for _, participant := range p {
		sum += participant.ModifiedFee
	}
	return sum
}

// SessionView is the read model of a session with member details resolved.
type SessionView struct {
	Session
	NumberParticipant int               `json:"numberParticipant"`
	ParticipantViews  []ParticipantView `json:"participants"`
	UpdateByName      string            `json:"updateByName"`
}

type ParticipantView struct {
	Participant
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// SessionResult pairs a saved session with the budget warnings raised while
// saving it.
type SessionResult struct {
	Session *Session          `json:"session"`
	Errors  map[string]string `json:"errors"`
}
