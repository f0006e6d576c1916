package domain

import "errors"

var (
	// Authentication errors
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevokedToken       = errors.New("token revoked")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrWrongRole          = errors.New("wrong role")
	ErrNotOwner           = errors.New("not resource owner")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrValidation         = errors.New("validation")

	// Cart errors
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("item not in cart")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCartNotActive    = errors.New("cart is not active")

	// Service errors (retryable)
	ErrStoreUnavailable = errors.New("store unavailable")
)
