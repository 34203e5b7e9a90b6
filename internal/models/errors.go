package models

import "errors"

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileSuspended    = errors.New("profile is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyFinalized    = errors.New("transaction already finalized")
	ErrKYCRequestNotFound  = errors.New("kyc request not found")
	ErrRequestNotPending   = errors.New("kyc request is not pending")
	ErrKYCTierTooLow       = errors.New("kyc tier too low for virtual account")
	ErrBVNRequired         = errors.New("bvn required")
	ErrAccountNotFound     = errors.New("virtual account not found")
	ErrPurchaseDeclined    = errors.New("purchase declined")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrInvalidCarrier      = errors.New("unrecognized mobile network")
	ErrUnknownAsset        = errors.New("unsupported crypto asset")
	ErrInvalidRequest      = errors.New("invalid request")
)
