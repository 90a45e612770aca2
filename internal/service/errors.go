package service

import "errors"

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrInvalidStatus = errors.New("invalid match status")
	ErrTickInFlight  = errors.New("a lifecycle pass is already running")
)
