package core

// Frame is a raw payload ready for the wire.
type Frame []byte

// SessionID is an opaque connection identifier assigned by the transport.
type SessionID string

// SignalConnection abstracts the messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
