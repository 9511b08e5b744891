package rako

import "errors"

var (
	// ErrBridge wraps network failures talking to the bridge.
	ErrBridge = errors.New("rako bridge error")

	// ErrBadCommand marks command parameters outside the protocol's domain.
	ErrBadCommand = errors.New("invalid rako command")

	// ErrBadFrame marks a datagram that is not a valid bridge frame.
	ErrBadFrame = errors.New("invalid rako frame")
)
