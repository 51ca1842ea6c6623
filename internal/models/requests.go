package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionRequest is the body of create, update and confirm session calls.
type SessionRequest struct {
	CourtType         CourtType            `json:"courtType" validate:"required,oneof=fixed casual"`
	DateList          DateList             `json:"dateList" validate:"required,min=1"`
	StartTime         string               `json:"startTime" validate:"required"`
	EndTime           string               `json:"endTime" validate:"required"`
	Location          string               `json:"location" validate:"required"`
	CourtFee          int64                `json:"courtFee" validate:"gte=0"`
	ShuttlecockFee    int64                `json:"shuttlecockFee" validate:"gte=0"`
	ExtraFee          int64                `json:"extraFee" validate:"gte=0"`
	Participants      []ParticipantRequest `json:"participants" validate:"dive"`
	Note              string               `json:"note"`
	GroupID           string               `json:"groupId" validate:"required"`
	NumberShuttlecock int64                `json:"numberShuttlecock" validate:"gte=0"`
}

type ParticipantRequest struct {
	MemberID string `json:"memberId" validate:"required"`
	FeeFlags
	ModifiedFee  int64                   `json:"modifiedFee"`
	Participants []SubParticipantRequest `json:"participants" validate:"dive"`
}

type SubParticipantRequest struct {
	Name string `json:"name" validate:"required"`
	FeeFlags
}

type TeamRequest struct {
	Name              string       `json:"name" validate:"required"`
	Amount            int64        `json:"amount"`
	NumberShuttlecock int64        `json:"numberShuttlecock" validate:"gte=0"`
	ShuttlecockFee    int64        `json:"shuttlecockFee" validate:"gte=0"`
	CourtFee          int64        `json:"courtFee" validate:"gte=0"`
	Note              string       `json:"note"`
	Members           []TeamMember `json:"members" validate:"required,dive"`
}

type TeamFeesRequest struct {
	NumberShuttlecock int64 `json:"numberShuttlecock" validate:"gte=0"`
	ShuttlecockFee    int64 `json:"shuttlecockFee" validate:"gte=0"`
}

type ShuttlecockFeeRequest struct {
	GroupID           string `json:"groupId" validate:"required"`
	ShuttlecockFee    int64  `json:"shuttlecockFee" validate:"gt=0"`
	NumberShuttlecock int64  `json:"numberShuttlecock" validate:"gt=0"`
}

type PaymentRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Note    string `json:"note" validate:"max=200"`
}

// DateList accepts RFC 3339 timestamps or plain 2006-01-02 dates. Plain dates
// are midnight UTC.
type DateList []time.Time

func (d *DateList) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	dates := make(DateList, 0, len(raw))
	for _, v := range raw {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			if t, err = time.Parse("2006-01-02", v); err != nil {
				return fmt.Errorf("invalid date %q", v)
			}
		}
		dates = append(dates, t)
	}
	*d = dates
	return nil
}
