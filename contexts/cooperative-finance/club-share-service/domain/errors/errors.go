package errors

import "errors"

// Not-found conditions. Fatal to the unit of work they occur in, never to
// the surrounding batch operation.
var (
	ErrMemberNotFound       = errors.New("club member not found")
	ErrAllocationNotFound   = errors.New("share allocation not found")
	ErrHoldingNotFound      = errors.New("holding account not found")
	ErrBatchNotFound        = errors.New("import batch not found")
	ErrMemberEmailMissing   = errors.New("club member has no email address")
	ErrMemberAccountMissing = errors.New("club member has no linked user account")
)

// Validation conditions. Surfaced per row or per request, non-fatal to a batch.
var (
	ErrInvalidAllocationInput = errors.New("invalid allocation input")
	ErrInvalidReleaseQuantity = errors.New("release quantity must be greater than zero")
	ErrEmptyReleasePool       = errors.New("no eligible allocations in the release pool")
)

// Collaborator failures. Fatal to the unit, state is left unchanged.
var (
	ErrNotificationFailed        = errors.New("notification dispatch failed")
	ErrAccountProvisioningFailed = errors.New("account provisioning failed")
	ErrTradingLedgerUnavailable  = errors.New("trading ledger rejected holding creation")
)

// Integrity conditions. Fatal to the whole operation.
var (
	ErrInvalidStatusTransition = errors.New("invalid allocation status transition")
	ErrIntegrityViolation      = errors.New("referential integrity violation")
	ErrAllocationExists        = errors.New("share allocation already exists")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrHoldingNotFound) ||
		errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrMemberEmailMissing) ||
		errors.Is(err, ErrMemberAccountMissing)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAllocationInput) ||
		errors.Is(err, ErrInvalidReleaseQuantity) ||
		errors.Is(err, ErrEmptyReleasePool)
}

func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrNotificationFailed) ||
		errors.Is(err, ErrAccountProvisioningFailed) ||
		errors.Is(err, ErrTradingLedgerUnavailable)
}

func IsIntegrity(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrIntegrityViolation) ||
		errors.Is(err, ErrAllocationExists)
}
