package Credit

import "errors"

var (
	// ErrBadTierConfig means a tier schedule failed write-time validation.
	// It must block the policy save; the read path never sees a bad schedule.
	ErrBadTierConfig = errors.New("malformed tier configuration")

	// ErrCreditLimitExceeded means the requested purchase does not fit in the
	// vendor's available credit. Surfaced to the requester, not retried.
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")

	// ErrBelowMinimumOrder means the purchase amount is under the platform
	// minimum. Checked before the atomic reservation step.
	ErrBelowMinimumOrder = errors.New("purchase amount below minimum order value")

	ErrVendorNotFound    = errors.New("vendor not found")
	ErrVendorNotApproved = errors.New("vendor is not approved for credit purchases")
	ErrPurchaseNotFound  = errors.New("credit purchase not found")
	ErrAlreadyRepaid     = errors.New("credit purchase already repaid")

	// ErrConflict means the storage layer kept reporting write conflicts after
	// bounded retries. Callers should re-read state and resubmit.
	ErrConflict = errors.New("transaction conflict, retry with fresh state")
)
