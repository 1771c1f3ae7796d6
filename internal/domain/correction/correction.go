package correction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound     = errors.New("correction not found")
	ErrNotPending   = errors.New("correction is not pending")
	ErrInvalidTimes = errors.New("proposed clock-out precedes proposed clock-in")
)

// Correction proposes replacement times for an existing closed time
// entry. Approval applies the proposed times to the entry.
type Correction struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	EntryID          string     `json:"entryId"`
	ProposedClockIn  time.Time  `json:"proposedClockIn"`
	ProposedClockOut time.Time  `json:"proposedClockOut"`
	Reason           string     `json:"reason"`
	Status           Status     `json:"status"`
	ReviewedBy       *string    `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	ReviewNote       *string    `json:"reviewNote,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	EntryID          string    `json:"entryId" binding:"required,uuid"`
	ProposedClockIn  time.Time `json:"proposedClockIn" binding:"required"`
	ProposedClockOut time.Time `json:"proposedClockOut" binding:"required"`
	Reason           string    `json:"reason" binding:"required,min=3,max=500"`
}

type DecisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"omitempty,max=500"`
}

type ListFilter struct {
	UserID *string
	Status *Status
	Limit  int
}

func NewFromCreateRequest(userID string, req CreateRequest) (Correction, error) {
	if !req.ProposedClockOut.After(req.ProposedClockIn) {
		return Correction{}, ErrInvalidTimes
	}

	now := time.Now().UTC()

	return Correction{
		ID:               uuid.NewString(),
		UserID:           userID,
		EntryID:          req.EntryID,
		ProposedClockIn:  req.ProposedClockIn.UTC(),
		ProposedClockOut: req.ProposedClockOut.UTC(),
		Reason:           req.Reason,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
