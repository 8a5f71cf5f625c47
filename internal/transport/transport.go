// Package transport sends and receives WirePackets over a network
// backend, handling MTU-bounded fragmentation on send and peer-pinning
// plus reassembly on receive.
package transport

import (
	"context"
	"errors"

	"github.com/lanternops/streamcast/internal/wire"
)

// Errors in the NetworkError family.
var (
	ErrBind               = errors.New("transport: bind failed")
	ErrSend               = errors.New("transport: send failed")
	ErrRecv               = errors.New("transport: receive failed")
	ErrParse              = errors.New("transport: malformed packet")
	ErrFragmentIncomplete = errors.New("transport: fragment chain incomplete")
)

// Transport is the capability interface the pipeline's transport worker
// drives. A Send call owns fragmentation; Recv yields one received packet
// at a time, with its reassembled payload once that payload is complete.
type Transport interface {
	// Bind prepares the transport to send/receive, e.g. opening a socket.
	Bind(ctx context.Context) error
	// Send fragments and transmits one coded access unit, assigning wire
	// sequence numbers to every emitted packet.
	Send(kind wire.Kind, timestampUs uint64, keyframe bool, data []byte) error
	// Recv blocks until one packet arrives, ctx is done, or the transport
	// is closed. The returned payload is nil while the packet only adds to
	// an unfinished fragment chain or was dropped by a resync.
	Recv(ctx context.Context) (*wire.Packet, []byte, error)
	Close() error
}
