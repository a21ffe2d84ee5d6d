package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrEmptyCatalogue = errors.New("catalogue has no risks")
	ErrInvalidOptions = errors.New("invalid simulation options")
)
