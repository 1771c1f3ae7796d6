package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// keyset cursors: base64url-encoded JSON of the sort key of the last
// row served.

type TimeEntryCursor struct {
	ClockIn time.Time `json:"clockIn"`
	ID      string    `json:"id"`
}

type AbsenceCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

type JobCursor struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
}

func EncodeTimeEntryCursor(clockIn time.Time, id string) (string, error) {
	b, err := json.Marshal(TimeEntryCursor{ClockIn: clockIn, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeTimeEntryCursor(cursor string) (TimeEntryCursor, error) {
	if cursor == "" {
		return TimeEntryCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return TimeEntryCursor{}, err
	}

	var c TimeEntryCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return TimeEntryCursor{}, err
	}
	if c.ID == "" || c.ClockIn.IsZero() {
		return TimeEntryCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

func EncodeAbsenceCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(AbsenceCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeAbsenceCursor(cursor string) (AbsenceCursor, error) {
	if cursor == "" {
		return AbsenceCursor{}, errors.New("empty cursor")
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return AbsenceCursor{}, err
	}
	var c AbsenceCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return AbsenceCursor{}, err
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return AbsenceCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

func EncodeJobCursor(updatedAt time.Time, id string) (string, error) {
	b, err := json.Marshal(JobCursor{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeJobCursor(cursor string) (JobCursor, error) {
	if cursor == "" {
		return JobCursor{}, errors.New("empty cursor")
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return JobCursor{}, err
	}
	var c JobCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return JobCursor{}, err
	}
	if c.ID == "" || c.UpdatedAt.IsZero() {
		return JobCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
