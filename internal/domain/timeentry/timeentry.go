package timeentry

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("time entry not found")
	ErrAlreadyOpen = errors.New("an open time entry already exists")
	ErrNoOpenEntry = errors.New("no open time entry to close")
)

// TimeEntry is one clock-in/clock-out pair. ClockOut stays nil while
// the entry is open; at most one open entry exists per user.
type TimeEntry struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ClockIn   time.Time  `json:"clockIn"`
	ClockOut  *time.Time `json:"clockOut,omitempty"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (e TimeEntry) Open() bool {
	return e.ClockOut == nil
}

type ClockInRequest struct {
	Note string `json:"note" binding:"omitempty,max=300"`
}

type ClockOutRequest struct {
	Note string `json:"note" binding:"omitempty,max=300"`
}

// ListFilter fields are nil when the caller does not filter on them.
type ListFilter struct {
	UserID *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

func NewOpen(userID, note string, at time.Time) TimeEntry {
	now := time.Now().UTC()

	return TimeEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClockIn:   at,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
