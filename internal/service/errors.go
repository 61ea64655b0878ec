package service

import "errors"

var (
	// ErrArchiveDisabled is returned by order lookups when no database is configured
	ErrArchiveDisabled = errors.New("order archive disabled")

	// ErrOrderNotFound is returned when no archived order has the reference
	ErrOrderNotFound = errors.New("order not found")
)
