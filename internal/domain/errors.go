package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidRule    = errors.New("invalid rate plan rule")
	ErrInvalidPrice   = errors.New("invalid price")

	// Per-cell outcomes. None of these abort a batch; they surface as an
	// unavailable cell or a skipped write with the matching reason code.
	ErrMissingBasePrice  = errors.New("missing base price")
	ErrInactiveRatePlan  = errors.New("inactive rate plan")
	ErrOutOfWriteWindow  = errors.New("out of write window")
	ErrInvalidDerivation = errors.New("invalid derivation")
)

// Reason codes exposed to callers for unavailable cells and skipped writes.
const (
	ReasonMissingBasePrice  = "missing_base_price"
	ReasonInactiveRatePlan  = "inactive_rate_plan"
	ReasonOutOfWriteWindow  = "out_of_write_window"
	ReasonInvalidDerivation = "invalid_derivation"
	ReasonInvalidPrice      = "invalid_price"
	ReasonInvalidRule       = "invalid_rule"
	ReasonStoreError        = "store_error"
)

// ReasonOf maps an error to its stable reason code.
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingBasePrice):
		return ReasonMissingBasePrice
	case errors.Is(err, ErrInactiveRatePlan):
		return ReasonInactiveRatePlan
	case errors.Is(err, ErrOutOfWriteWindow):
		return ReasonOutOfWriteWindow
	case errors.Is(err, ErrInvalidDerivation):
		return ReasonInvalidDerivation
	case errors.Is(err, ErrInvalidPrice):
		return ReasonInvalidPrice
	case errors.Is(err, ErrInvalidRule):
		return ReasonInvalidRule
	default:
		return ReasonStoreError
	}
}
