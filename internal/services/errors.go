package services

import "errors"

// Funnel service errors
var (
	ErrPageNotFound      = errors.New("page not found")
	ErrUnknownGroupKey   = errors.New("unknown group key")
	ErrUnknownField      = errors.New("unknown filter field")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrSourceUnavailable = errors.New("source unavailable")
)
