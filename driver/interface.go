package driver

import (
	"errors"
	"io"
)

// Port is a byte-level link to the board (serial device, TCP bridge or emulator)
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Transport exchanges protocol lines with the board.
// Implementations are not safe for concurrent use; one command is in flight at a time.
type Transport interface {
	// WriteCommand frames line with the protocol terminator and sends it
	WriteCommand(line string) error
	// ReadReply returns the next reply line, terminator and surrounding whitespace
	// stripped. A read that times out yields the partial (possibly empty) line and a nil error.
	ReadReply() (string, error)
	// Close releases the link. Calling it more than once is harmless.
	Close() error
}

var (
	ErrClosed             = errors.New("transport closed")
	ErrDeviceNotFound     = errors.New("no serial port matches the device identity")
	ErrNotReady           = errors.New("transport not provisioned")
	ErrAlreadyProvisioned = errors.New("transport already provisioned")
)
