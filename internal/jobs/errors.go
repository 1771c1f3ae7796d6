package jobs

import "errors"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")
	ErrJobNotFailed        = errors.New("job is not failed")
)
