package types

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from a board API.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Permanent reports whether the board looks decommissioned. 503 is included:
// a single outage cannot be told apart from a board that is gone.
func (e *StatusError) Permanent() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusServiceUnavailable
}

// IsPermanent reports whether err carries a permanent-class board failure.
func IsPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Permanent()
}

// MalformedError marks a single raw entry that could not become a Posting.
type MalformedError struct {
	Index int
	Err   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

var ErrEmptyPosting = errors.New("posting has no id, url or title")
