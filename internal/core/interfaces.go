package core

import (
	"errors"

	"github.com/dkeye/Ring/internal/domain"
)

// Frame is a marshaled wire message ready for transport.
type Frame []byte

var ErrBackpressure = errors.New("signal backpressure")

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() domain.ConnID
	// TrySend never blocks; a full send buffer returns ErrBackpressure and
	// the frame is dropped.
	TrySend(Frame) error
	Close()
	// Alive reports whether the underlying transport is still open. The
	// reaper uses it to purge presence entries whose close event was lost.
	Alive() bool
}
