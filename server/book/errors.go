// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package book

import "decred.org/dexcore/dex"

// Error kinds. Every error returned by a Book operation matches exactly one of
// these with errors.Is.
const (
	ErrInvalidArgument        = dex.ErrorKind("invalid argument")
	ErrNotFound               = dex.ErrorKind("not found")
	ErrInvalidState           = dex.ErrorKind("invalid state")
	ErrUnauthorized           = dex.ErrorKind("unauthorized")
	ErrTransferRejected       = dex.ErrorKind("transfer rejected")
	ErrInsufficientFillAmount = dex.ErrorKind("insufficient fill amount")
	ErrNothingFilled          = dex.ErrorKind("nothing filled")
)

// Specific errors, each wrapping a kind.
var (
	ErrInvalidProxy    = dex.NewError(ErrInvalidArgument, "invalid proxy")
	ErrInvalidAsset    = dex.NewError(ErrInvalidArgument, "invalid asset")
	ErrInvalidAmount   = dex.NewError(ErrInvalidArgument, "invalid amount")
	ErrInvalidAddress  = dex.NewError(ErrInvalidArgument, "zero address")
	ErrNoNonces        = dex.NewError(ErrInvalidArgument, "empty nonce list")
	ErrOrderNotFound   = dex.NewError(ErrNotFound, "order not found")
	ErrOrderNotOpen    = dex.NewError(ErrInvalidState, "order not open")
	ErrNotMaker        = dex.NewError(ErrUnauthorized, "caller is not the maker")
	ErrNotTransferable = dex.NewError(ErrTransferRejected, "asset not transferable")
	ErrTransferFailed  = dex.NewError(ErrTransferRejected, "transfer failed")
)
