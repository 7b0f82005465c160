// internal/domain/errors/errors.domain.go
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the public name of a failure class. Callers switch on it instead of
// comparing message strings.
type Kind string

const (
	KindNone             Kind = ""
	KindValidation       Kind = "validation_error"
	KindForbidden        Kind = "forbidden"
	KindAlreadyMember    Kind = "already_member"
	KindAlreadyInLibrary Kind = "already_in_library"
	KindNotFound         Kind = "not_found"
	KindPartialFailure   Kind = "partial_failure"
	KindTransientStore   Kind = "transient_store_error"
	KindInternal         Kind = "internal"
)

// Standard Sentinel Errors
// The transport layer maps these to status codes (ErrForbidden -> PermissionDenied).
var (
	ErrValidation       = errors.New(string(KindValidation))
	ErrForbidden        = errors.New(string(KindForbidden))
	ErrAlreadyMember    = errors.New(string(KindAlreadyMember))
	ErrAlreadyInLibrary = errors.New(string(KindAlreadyInLibrary))
	ErrNotFound         = errors.New(string(KindNotFound))
	ErrPartialFailure   = errors.New(string(KindPartialFailure))
	ErrTransientStore   = errors.New(string(KindTransientStore))
)

// Entity errors. Each one wraps its kind so errors.Is works against both.
var (
	ErrPersonNotFound      = fmt.Errorf("person %w", ErrNotFound)
	ErrTenantNotFound      = fmt.Errorf("tenant %w", ErrNotFound)
	ErrMembershipNotFound  = fmt.Errorf("membership %w", ErrNotFound)
	ErrReadingNotFound     = fmt.Errorf("reading record %w", ErrNotFound)
	ErrCatalogItemNotFound = fmt.Errorf("catalog item %w", ErrNotFound)

	ErrInvalidInput     = fmt.Errorf("invalid input arguments: %w", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("unknown reading status: %w", ErrValidation)
	ErrOpinionTooShort  = fmt.Errorf("opinion is shorter than the minimum length: %w", ErrValidation)
	ErrRatingOutOfRange = fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	ErrInvalidRole      = fmt.Errorf("unknown admin role: %w", ErrValidation)
)

// Validationf builds a field-level validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Transient marks a store failure as safe to retry.
func Transient(op string, cause error) error {
	return &TransientError{Op: op, Cause: cause}
}

// TransientError is returned by stores when the backing service is unreachable
// or timed out. Nothing is assumed to be corrupted.
type TransientError struct {
	Op    string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", KindTransientStore, e.Op, e.Cause)
}

func (e *TransientError) Is(target error) bool { return target == ErrTransientStore }

func (e *TransientError) Unwrap() error { return e.Cause }

// PartialFailureError reports a multi-step operation that stopped half way.
// Completed lists the steps whose writes are durable, Failed names the step
// that gave up. Re-invoking the same operation resumes from Failed.
type PartialFailureError struct {
	Operation string
	Completed []string
	Failed    string
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %s stopped at %q after [%s]: %v",
		KindPartialFailure, e.Operation, e.Failed, strings.Join(e.Completed, ", "), e.Cause)
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// KindOf classifies err. Partial failures win over their cause so a transient
// cause inside a workflow is still reported as partial.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPartialFailure):
		return KindPartialFailure
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrAlreadyMember):
		return KindAlreadyMember
	case errors.Is(err, ErrAlreadyInLibrary):
		return KindAlreadyInLibrary
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransientStore):
		return KindTransientStore
	default:
		return KindInternal
	}
}

// Retryable reports whether err may be retried as-is with backoff.
func Retryable(err error) bool {
	return KindOf(err) == KindTransientStore
}
