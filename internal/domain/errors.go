package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo functions when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by config loading when the session file or the
// environment fails validation (e.g. a trip without dates, a non-positive
// request budget). It is fatal: the watcher never starts.
var ErrValidation = errors.New("validation error")

// ErrNoFeasibleSchedule is returned when the daily request budget cannot
// accommodate even a single round of the planned requests.
var ErrNoFeasibleSchedule = errors.New("no feasible schedule")

// ErrNetwork is returned by the search client when the request could not be
// sent or the response body could not be read.
var ErrNetwork = errors.New("network error")

// ErrParse is the sentinel wrapped by every *ParseError so callers can test
// with errors.Is without caring about the kind.
var ErrParse = errors.New("parse error")

// ErrNoPricing is reported for a trip option that carries no pricing entries.
var ErrNoPricing = errors.New("trip option has no pricing")

// ParseKind identifies which parser rejected an input.
type ParseKind string

const (
	KindMoney ParseKind = "money"
	KindTime  ParseKind = "time"
)

// ParseError is returned by ParseMoney and ParseInstant. Input is the raw
// string exactly as it was received.
type ParseError struct {
	Kind  ParseKind
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid input %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// UpstreamError is returned when the pricing API answers with anything other
// than HTTP 200.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
}
