package exceptions

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPlatformRef  = errors.New("exactly one valid platform id is required")
	ErrPhoneTaken          = errors.New("phone is already linked to another account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrItemNotFound        = errors.New("shop item not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)
