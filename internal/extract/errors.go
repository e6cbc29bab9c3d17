package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFetch is matched by every FetchError.
	ErrFetch = errors.New("document fetch failed")
	// ErrParse reports a document that could not be read as HTML at all.
	ErrParse = errors.New("document parse failed")
)

// FetchError is record-fatal: the notice is skipped for this cycle.
type FetchError struct {
	Link   string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http %d", e.Link, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Link, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// MalformedLotError is lot-fatal: one row of the lot table lacked a required
// column. Sibling rows are still produced.
type MalformedLotError struct {
	Rule    string
	Row     int // 1-based data row index
	Missing []string
}

func (e *MalformedLotError) Error() string {
	return fmt.Sprintf("%s: lot row %d: missing column(s) %s", e.Rule, e.Row, strings.Join(e.Missing, ", "))
}

// OnlyMalformed reports whether err is non-nil and consists solely of
// MalformedLotErrors, i.e. the extraction succeeded partially.
func OnlyMalformed(err error) bool {
	if err == nil {
		return false
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs := j.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, e := range errs {
			if !OnlyMalformed(e) {
				return false
			}
		}
		return true
	}
	var m *MalformedLotError
	return errors.As(err, &m)
}
