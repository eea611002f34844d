package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned by Connect when the room or user id is empty.
	ErrInvalidTarget = errors.New("connection: room id and user id are required")
	// ErrManagerClosed is returned once Disconnect has been called.
	ErrManagerClosed = errors.New("connection: manager is closed")
)

// ProtocolError is an error envelope sent by the server. The session stays open.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("chat server error: %s", e.Reason)
}

// ConnectivityError reports a transport failure. Recovery is automatic; the
// error is informational.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("chat connection error: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }
