package session

import "errors"

var (
	// ErrNoSession is returned by operations that need an open session.
	ErrNoSession = errors.New("session: no open session")
	// ErrEmptyExtensionID is returned by Open for a blank id.
	ErrEmptyExtensionID = errors.New("session: extension id is required")
	// ErrUnknownAction is returned for an action kind the channel cannot send.
	ErrUnknownAction = errors.New("session: unknown action kind")
)
