package domain

import "errors"

var (
	ErrDecode          = errors.New("undecodable bus payload")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoBus           = errors.New("no bus connection available")
	ErrNotFound        = errors.New("not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrContextDone     = errors.New("context cancelled")
)
