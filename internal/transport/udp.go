package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanternops/streamcast/internal/logging"
	"github.com/lanternops/streamcast/internal/metrics"
	"github.com/lanternops/streamcast/internal/wire"
)

var log = logging.L("transport")

// sendErrorLogInterval bounds how often a run of consecutive send failures
// gets logged, so a peer that vanished mid-stream doesn't flood the log
// once per frame.
const sendErrorLogInterval = 1 * time.Second

// UDP is a datagram Transport: peer-pinning on first receive (the sender
// of the first datagram becomes the only peer this socket will talk to),
// byte-code-boundary-aware fragmentation on send, and single-chain
// reassembly on receive.
type UDP struct {
	bindAddr      string
	maxPacketSize int
	counters      *metrics.Counters

	conn *net.UDPConn

	peerMu sync.RWMutex
	peer   *net.UDPAddr

	sequence atomic.Uint32
	reassm   *wire.Reassembler

	lastSendErrLogMu sync.Mutex
	lastSendErrLog   time.Time
}

// NewUDP returns a UDP transport bound to bindAddr:port on Bind.
func NewUDP(bindAddr string, port, maxPacketSize int, counters *metrics.Counters) *UDP {
	return &UDP{
		bindAddr:      fmt.Sprintf("%s:%d", bindAddr, port),
		maxPacketSize: maxPacketSize,
		counters:      counters,
		reassm:        wire.NewReassembler(),
	}
}

func (u *UDP) Bind(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", u.bindAddr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrBind, u.bindAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %v", ErrBind, u.bindAddr, err)
	}
	u.conn = conn
	log.Info("bound", "addr", u.bindAddr)
	return nil
}

func (u *UDP) Send(kind wire.Kind, timestampUs uint64, keyframe bool, data []byte) error {
	u.peerMu.RLock()
	peer := u.peer
	u.peerMu.RUnlock()
	if peer == nil {
		// No peer pinned yet (nothing has been received). Drop silently;
		// the caller's packet counters already reflect encode progress.
		return nil
	}

	maxPayload := u.maxPacketSize - wire.HeaderSize
	chunks := wire.Chunk(data, maxPayload)

	for i, chunk := range chunks {
		flags := uint8(0)
		if keyframe {
			flags |= wire.FlagKeyframe
		}
		if len(chunks) > 1 {
			flags |= wire.FlagFragment
			if i == len(chunks)-1 {
				flags |= wire.FlagLastFragment
			}
		}

		pkt := &wire.Packet{
			Kind:        kind,
			Sequence:    u.sequence.Add(1) - 1,
			TimestampUs: timestampUs,
			Flags:       flags,
			Payload:     chunk,
		}
		buf := pkt.Encode()

		if _, err := u.conn.WriteToUDP(buf, peer); err != nil {
			u.logSendError(err)
			return fmt.Errorf("%w: %v", ErrSend, err)
		}
		u.counters.AddPacketsSent(1)
		u.counters.AddBytesSent(uint64(len(buf)))
	}
	return nil
}

// logSendError logs a send failure, rate-limited to once per
// sendErrorLogInterval so a vanished peer doesn't flood the log once per
// frame. The failure is never treated as fatal; the caller still returns
// ErrSend to the frame that triggered it.
func (u *UDP) logSendError(err error) {
	u.lastSendErrLogMu.Lock()
	defer u.lastSendErrLogMu.Unlock()
	if now := time.Now(); now.Sub(u.lastSendErrLog) >= sendErrorLogInterval {
		log.Warn("send failed", "error", err)
		u.lastSendErrLog = now
	}
}

func (u *UDP) Recv(ctx context.Context) (*wire.Packet, []byte, error) {
	buf := make([]byte, 65535)

	type result struct {
		n    int
		addr *net.UDPAddr
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		n, addr, err := u.conn.ReadFromUDP(buf)
		ch <- result{n, addr, err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrRecv, r.err)
		}

		u.peerMu.Lock()
		if u.peer == nil {
			u.peer = r.addr
			log.Info("peer pinned", "addr", r.addr.String())
		}
		u.peerMu.Unlock()

		pkt, err := wire.Decode(buf[:r.n])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		u.counters.AddPacketsReceived(1)
		u.counters.AddBytesReceived(uint64(r.n))

		payload, ok := u.reassm.Feed(pkt)
		if !ok {
			return pkt, nil, nil
		}
		return pkt, payload, nil
	}
}

func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}

var _ Transport = (*UDP)(nil)
