package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoTrades      = errors.New("no trades found in the file")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrLockHeld      = errors.New("lock already held")
	ErrInvalidTrade  = errors.New("invalid trade")
	ErrNoBlobStorage = errors.New("blob storage not configured")
	ErrTooLarge      = errors.New("statement too large")
)
