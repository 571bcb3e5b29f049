package core

import (
	"errors"
	"fmt"
)

var (
	ErrMediaAccessDenied = errors.New("media access denied")
	ErrNoActiveSession   = errors.New("no active session")
	ErrAlreadyNegotiated = errors.New("remote signal already accepted")
	ErrNoMedia           = errors.New("no local media")
)

// SignalFormatError reports an envelope that could not be turned into a
// handshake payload. The session it was meant for is left untouched.
type SignalFormatError struct {
	Reason string
	Err    error
}

func (e *SignalFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signal format: %s: %v", e.Reason, e.Err)
	}
	return "signal format: " + e.Reason
}

func (e *SignalFormatError) Unwrap() error { return e.Err }

// TransportError is fatal to the current session only.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsSignalFormat(err error) bool {
	var sfe *SignalFormatError
	return errors.As(err, &sfe)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
