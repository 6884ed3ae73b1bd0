package venuefed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pevans/venuefed/browser"
	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/listing"
	"github.com/pevans/venuefed/records"
	"github.com/pevans/venuefed/sheets"
	"github.com/pevans/venuefed/venue"
)

// Phase names one half of a run.
type Phase string

const (
	PhaseScrape  Phase = "scrape"
	PhasePublish Phase = "publish"
)

// Status is the outcome of a phase.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// ErrorKind classifies why a phase failed.
type ErrorKind string

const (
	KindNone       ErrorKind = "none"
	KindConfig     ErrorKind = "config"
	KindBrowser    ErrorKind = "browser"
	KindCollect    ErrorKind = "collect"
	KindNavigation ErrorKind = "navigation"
	KindStorage    ErrorKind = "storage"
	KindSnapshot   ErrorKind = "snapshot"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindSchema     ErrorKind = "schema"
	KindRemote     ErrorKind = "remote"
	KindCanceled   ErrorKind = "canceled"
)

// ErrStorage wraps failures reading or writing local files.
var ErrStorage = errors.New("local storage failed")

// Result is the typed outcome of one phase.
type Result struct {
	RunID      uuid.UUID
	Phase      Phase
	Status     Status
	Kind       ErrorKind
	Err        error
	Links      int
	Records    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the phase succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Duration returns how long the phase ran.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Classify maps an error onto an ErrorKind. Order matters: more specific
// causes are checked before the wrappers that carry them.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, config.ErrInvalidConfig):
		return KindConfig
	case errors.Is(err, browser.ErrLaunch):
		return KindBrowser
	case errors.Is(err, venue.ErrNavigation):
		return KindNavigation
	case errors.Is(err, listing.ErrCollect):
		return KindCollect
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, records.ErrSnapshot):
		return KindSnapshot
	case errors.Is(err, sheets.ErrCredentials):
		return KindAuth
	case errors.Is(err, sheets.ErrSpreadsheetNotFound), errors.Is(err, sheets.ErrWorksheetNotFound):
		return KindNotFound
	case errors.Is(err, records.ErrMissingKey):
		return KindSchema
	default:
		return KindRemote
	}
}
