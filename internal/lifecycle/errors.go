package lifecycle

import "errors"

var (
	ErrUnknownStatus     = errors.New("unknown_status")
	ErrIllegalTransition = errors.New("illegal_transition")
	ErrUnauthorized      = errors.New("unauthorized_transition")
	ErrStaleTotals       = errors.New("stale_totals")
	ErrConflict          = errors.New("document_conflict")
)
