package domain

import "errors"

var (
	ErrTransport       = errors.New("service unreachable")
	ErrRejected        = errors.New("service rejected request")
	ErrParse           = errors.New("unexpected response")
	ErrTimedOut        = errors.New("operation did not finish in time")
	ErrOperationFailed = errors.New("remote operation failed")
	ErrMissingHandle   = errors.New("accepted response without operation location")
	ErrNotConfigured   = errors.New("credentials not configured")
	ErrNotFound        = errors.New("nothing found")
	ErrCapture         = errors.New("image capture failed")
	ErrNoLocation      = errors.New("location unavailable")
)
