package absence

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

const (
	KindVacation = "vacation"
	KindSick     = "sick"
	KindPersonal = "personal"
	KindOther    = "other"
)

var (
	ErrNotFound     = errors.New("absence not found")
	ErrNotPending   = errors.New("absence is not pending")
	ErrInvalidRange = errors.New("absence end date precedes start date")
)

// The approval lifecycle is linear: pending is the only state a
// reviewer may act on, and a decision is final.
type Absence struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Kind       string     `json:"kind"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Reason     string     `json:"reason,omitempty"`
	Status     Status     `json:"status"`
	ReviewedBy *string    `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	ReviewNote *string    `json:"reviewNote,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=vacation sick personal other"`
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" binding:"omitempty,max=500"`
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

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// NewFromCreateRequest builds a pending Absence from the incoming DTO.
// Dates were already shape-checked by binding tags.
func NewFromCreateRequest(userID string, req CreateRequest) (Absence, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return Absence{}, err
	}

	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return Absence{}, err
	}

	if end.Before(start) {
		return Absence{}, ErrInvalidRange
	}

	now := time.Now().UTC()

	return Absence{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      req.Kind,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
