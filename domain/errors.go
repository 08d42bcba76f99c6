package domain

import (
	"errors"

	"golang.org/x/xerrors"
)

// Error kinds. Every user-facing failure wraps exactly one of these so
// delivery layers can map it to a status code with errors.Is.
var (
	// ErrValidation will throw if the given request-body or params is not valid
	ErrValidation = errors.New("validation failed")
	// ErrAuthorization will throw if the caller lacks the required privilege
	ErrAuthorization = errors.New("not authorized")
	// ErrState will throw if the operation is not legal in the record's current state
	ErrState = errors.New("invalid state")
	// ErrTransfer will throw if an asset-custody or payment movement fails;
	// the whole call is rolled back before it surfaces
	ErrTransfer = errors.New("transfer failed")

	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
)

// Specific reasons, user-visible strings kept verbatim from the settlement
// contract surface.
var (
	ErrPriceMustBePositive   = xerrors.Errorf("Price must be > 0: %w", ErrValidation)
	ErrInsufficientPayment   = xerrors.Errorf("Insufficient payment: %w", ErrValidation)
	ErrRoyaltyTooHigh        = xerrors.Errorf("Royalty too high: %w", ErrValidation)
	ErrFeeTooHigh            = xerrors.Errorf("Fee too high: %w", ErrValidation)
	ErrInvalidDuration       = xerrors.Errorf("Invalid duration: %w", ErrValidation)
	ErrInvalidExpiry         = xerrors.Errorf("Expiry must be in the future: %w", ErrValidation)
	ErrInvalidNumberFormat   = xerrors.Errorf("invalid number format: %w", ErrValidation)
	ErrInvalidAddress        = xerrors.Errorf("Invalid address: %w", ErrValidation)
	ErrInvalidSignature      = xerrors.Errorf("Invalid signature: %w", ErrAuthorization)
	ErrNotSeller             = xerrors.Errorf("Only seller may do this: %w", ErrAuthorization)
	ErrNotAdmin              = xerrors.Errorf("Only admin may do this: %w", ErrAuthorization)
	ErrListingInactive       = xerrors.Errorf("Listing is not active: %w", ErrState)
	ErrListingExists         = xerrors.Errorf("Item is already listed: %w", ErrState)
	ErrOfferExpired          = xerrors.Errorf("Offer expired: %w", ErrState)
	ErrOfferClosed           = xerrors.Errorf("Offer already accepted or withdrawn: %w", ErrState)
	ErrAuctionEnded          = xerrors.Errorf("Auction has ended: %w", ErrState)
	ErrAuctionNotEnded       = xerrors.Errorf("Auction not yet ended: %w", ErrState)
	ErrAuctionFinalized      = xerrors.Errorf("Auction already finalized: %w", ErrState)
	ErrBidTooLow             = xerrors.Errorf("Bid too low: %w", ErrValidation)
	ErrNotOwner              = xerrors.Errorf("Caller does not own the asset: %w", ErrAuthorization)
	ErrNotApproved           = xerrors.Errorf("Marketplace not approved for asset: %w", ErrValidation)
	ErrInsufficientFunds     = xerrors.Errorf("Insufficient funds: %w", ErrTransfer)
	ErrCustodyTransferFailed = xerrors.Errorf("Asset custody transfer failed: %w", ErrTransfer)
)
