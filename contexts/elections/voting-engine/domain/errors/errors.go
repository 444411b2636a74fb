package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid voting input")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateVoter = errors.New("voter is already registered")
	ErrAlreadyVoted   = errors.New("voter has already voted")
	ErrUnavailable    = errors.New("voting storage unavailable")
	ErrHubClosed      = errors.New("tally broadcast hub is closed")
	ErrSubscriberSlow = errors.New("tally subscriber fell behind and was dropped")
	ErrConflict       = errors.New("voting conflict")

	ErrVoterNotFound     = fmt.Errorf("voter %w", ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("candidate %w", ErrNotFound)
)
