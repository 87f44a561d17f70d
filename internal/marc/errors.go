package marc

import "errors"

// Rejection reasons returned by Parser.Parse. None of them is a failure of
// the run; callers count them and move on.
var (
	ErrDeleted      = errors.New("record is marked deleted")
	ErrNoIdentifier = errors.New("record header has no identifier")
	ErrNoPayload    = errors.New("record has no MARC payload")
	ErrNoTitle      = errors.New("record has no title")
	ErrNoLinks      = errors.New("record has no downloadable ebook link")
)

// RejectionReason returns a short stable label for metrics and reports.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDeleted):
		return "deleted"
	case errors.Is(err, ErrNoIdentifier):
		return "no_identifier"
	case errors.Is(err, ErrNoPayload):
		return "no_payload"
	case errors.Is(err, ErrNoTitle):
		return "no_title"
	case errors.Is(err, ErrNoLinks):
		return "no_links"
	default:
		return "other"
	}
}
