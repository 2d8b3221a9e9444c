// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import "errors"

// ArchiveError is the error type used by archivers for certain recognized
// errors. Not all returned errors will be of this type.
type ArchiveError struct {
	Code   uint16
	Detail string
}

// The possible Code values in an ArchiveError.
const (
	ErrGeneralFailure uint16 = iota
	ErrUnknownOrder
	ErrOrderExists
	ErrInvalidOrder
	ErrInvalidFill
)

func (ae ArchiveError) Error() string {
	desc := "unrecognized error"
	switch ae.Code {
	case ErrGeneralFailure:
		desc = "general failure"
	case ErrUnknownOrder:
		desc = "unknown order"
	case ErrOrderExists:
		desc = "order exists"
	case ErrInvalidOrder:
		desc = "invalid order"
	case ErrInvalidFill:
		desc = "invalid fill"
	}

	if ae.Detail == "" {
		return desc
	}
	return desc + ": " + ae.Detail
}

// SameErrorTypes checks for error equality or ArchiveError.Code equality if
// both errors are of type ArchiveError.
func SameErrorTypes(errA, errB error) bool {
	if errors.Is(errA, errB) {
		return true
	}
	var arA ArchiveError
	if errors.As(errA, &arA) {
		var arB ArchiveError
		if errors.As(errB, &arB) && arA.Code == arB.Code {
			return true
		}
	}
	return false
}

func isCode(err error, code uint16) bool {
	var errA ArchiveError
	if errors.As(err, &errA) {
		return errA.Code == code
	}
	return false
}

// IsErrOrderUnknown returns true if the error is of type ArchiveError and has
// code ErrUnknownOrder.
func IsErrOrderUnknown(err error) bool {
	return isCode(err, ErrUnknownOrder)
}

// IsErrOrderExists returns true if the error is of type ArchiveError and has
// code ErrOrderExists.
func IsErrOrderExists(err error) bool {
	return isCode(err, ErrOrderExists)
}

// IsErrInvalidOrder returns true if the error is of type ArchiveError and has
// code ErrInvalidOrder.
func IsErrInvalidOrder(err error) bool {
	return isCode(err, ErrInvalidOrder)
}

// IsErrInvalidFill returns true if the error is of type ArchiveError and has
// code ErrInvalidFill.
func IsErrInvalidFill(err error) bool {
	return isCode(err, ErrInvalidFill)
}
