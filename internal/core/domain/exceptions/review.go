package exceptions

import "errors"

var (
	ErrReviewNotFound         = errors.New("review not found")
	ErrReviewNotPending       = errors.New("review is not pending")
	ErrReviewAlreadySubmitted = errors.New("review already submitted")
	ErrInvalidPhoto           = errors.New("invalid photo")
)
