package service

import (
	"errors"
	"fmt"
)

// ErrLadderFailed is returned when every attempted ladder level failed with a fetch or
// extraction error. A ladder where at least one level came back cleanly empty is exhausted, not failed.
var ErrLadderFailed = errors.New("all search strategies failed")

// FetchError records a failed page fetch or extraction at one ladder level
type FetchError struct {
	Level    int
	Strategy string
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("level %d (%s): %v", e.Level, e.Strategy, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
