package wire

import "errors"

// Sentinel kinds for codec errors.
var (
	// ErrConnectionClosed reports that the peer went away before a full
	// header or payload could be read. Recoverable; the caller reconnects
	// immediately.
	ErrConnectionClosed = errors.New("connection closed mid-frame")

	// ErrProtocolCorruption reports a magic mismatch or an implausible
	// payload length. The stream is desynced and cannot be recovered; the
	// caller must drop the connection and reconnect.
	ErrProtocolCorruption = errors.New("protocol corruption")
)
