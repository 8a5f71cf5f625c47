// Package pipeline implements the capture -> encode -> transport
// supervisor: lifecycle, bounded queues, backpressure policy, and
// coordinated shutdown across the four worker goroutines (capture, encode,
// send and receive).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanternops/streamcast/internal/capture"
	"github.com/lanternops/streamcast/internal/config"
	"github.com/lanternops/streamcast/internal/encode"
	"github.com/lanternops/streamcast/internal/inputinjection"
	"github.com/lanternops/streamcast/internal/logging"
	"github.com/lanternops/streamcast/internal/metrics"
	"github.com/lanternops/streamcast/internal/transport"
	"github.com/lanternops/streamcast/internal/wire"
)

var log = logging.L("pipeline")

// Q1Capacity and Q2Capacity are the bounded queue sizes between
// capture->encode and encode->transport respectively.
const (
	Q1Capacity = 8
	Q2Capacity = 32
)

// consecutiveErrorLimit aborts the pipeline if the capture worker sees
// more than this many consecutive non-NoFrame errors.
const consecutiveErrorLimit = 100

// drainWindow bounds how long Stop waits for workers to notice shutdown
// and exit cleanly before returning anyway.
const drainWindow = 500 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by Start when the pipeline is not Idle.
	ErrAlreadyRunning = errors.New("pipeline: already running")
	// ErrNotRunning is returned by Stop when the pipeline is not Running.
	ErrNotRunning = errors.New("pipeline: not running")
)

type state int32

const (
	stateIdle state = iota
	stateRunning
	stateStopping
)

// Pipeline is the supervisor: it owns the capture/encode/transport workers,
// the bounded queues between them, and the lifecycle state machine
// {Idle -> Running -> Stopping -> Idle}.
type Pipeline struct {
	screen    capture.Screen
	enc       *encode.Encoder
	transport transport.Transport
	injector  inputinjection.Injector

	state    atomic.Int32
	stateMu  sync.Mutex // serializes Start/Stop transitions
	done     chan struct{}
	wg       sync.WaitGroup
	counters *metrics.Counters

	cfg atomic.Pointer[config.Config]

	pendingGeometry atomic.Bool
}

// New constructs an idle pipeline around the given collaborators. counters
// is shared with the transport so FramesCaptured/FramesEncoded (owned here)
// and PacketsSent/BytesSent (owned by the transport) land in one Stats
// snapshot; pass metrics.New(time.Now()) if the caller has no transport of
// its own to share it with.
func New(screen capture.Screen, enc *encode.Encoder, tr transport.Transport, inj inputinjection.Injector, cfg *config.Config, counters *metrics.Counters) *Pipeline {
	p := &Pipeline{
		screen:    screen,
		enc:       enc,
		transport: tr,
		injector:  inj,
		counters:  counters,
	}
	p.cfg.Store(cfg)
	return p
}

func (p *Pipeline) State() string {
	switch state(p.state.Load()) {
	case stateRunning:
		return "running"
	case stateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

func (p *Pipeline) IsRunning() bool {
	return state(p.state.Load()) == stateRunning
}

// Start transitions Idle -> Running, binds the transport, and launches the
// capture, encode, send and receive worker goroutines.
func (p *Pipeline) Start(ctx context.Context) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if !p.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		return ErrAlreadyRunning
	}

	if err := p.transport.Bind(ctx); err != nil {
		p.state.Store(int32(stateIdle))
		return fmt.Errorf("pipeline: start: %w", err)
	}

	p.done = make(chan struct{})
	recvCtx, cancelRecv := context.WithCancel(context.Background())
	go func() {
		<-p.done
		cancelRecv()
	}()

	q1 := make(chan *capture.Frame, Q1Capacity)
	q2 := make(chan *encode.CodedPacket, Q2Capacity)

	p.wg.Add(4)
	go p.captureLoop(q1)
	go p.encodeLoop(q1, q2)
	go p.transportSendLoop(q2)
	go p.receiveLoop(recvCtx)

	log.Info("pipeline started")
	return nil
}

// Stop transitions Running -> Stopping -> Idle: broadcasts shutdown, waits
// up to drainWindow for workers to exit, and closes collaborators. Stop is
// idempotent with respect to concurrent callers via stateMu, and returns
// ErrNotRunning if called while Idle.
func (p *Pipeline) Stop() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if !p.state.CompareAndSwap(int32(stateRunning), int32(stateStopping)) {
		return ErrNotRunning
	}

	close(p.done)

	waitDone := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(drainWindow):
		log.Warn("drain window exceeded, proceeding with shutdown")
	}

	if err := p.screen.Close(); err != nil {
		log.Warn("capture close error", "error", err)
	}
	if err := p.enc.Close(); err != nil {
		log.Warn("encoder close error", "error", err)
	}
	if err := p.transport.Close(); err != nil {
		log.Warn("transport close error", "error", err)
	}

	p.state.Store(int32(stateIdle))
	log.Info("pipeline stopped")
	return nil
}

// UpdateConfig swaps the active config. Geometry changes are deferred to
// the next keyframe boundary; bitrate changes apply immediately.
func (p *Pipeline) UpdateConfig(next *config.Config) error {
	prev := p.cfg.Load()
	if prev != nil && (prev.Video.Width != next.Video.Width || prev.Video.Height != next.Video.Height) {
		p.pendingGeometry.Store(true)
	}
	if prev == nil || prev.Video.BitrateKbps != next.Video.BitrateKbps {
		if err := p.enc.SetBitrate(next.Video.BitrateKbps); err != nil {
			return fmt.Errorf("pipeline: update config: %w", err)
		}
	}
	p.cfg.Store(next)
	return nil
}

// Stats returns a point-in-time snapshot of the pipeline's counters.
func (p *Pipeline) Stats() metrics.Stats {
	return p.counters.Snapshot()
}

// captureLoop paces itself to a fixed deadline derived from the configured
// fps, never bursting to catch up after a missed tick, and drops frames
// rather than blocking when q1 is full.
func (p *Pipeline) captureLoop(q1 chan<- *capture.Frame) {
	defer p.wg.Done()
	defer close(q1)

	cfg := p.cfg.Load()
	period := time.Duration(1_000_000/max(cfg.Video.FPS, 1)) * time.Microsecond
	deadline := time.Now().Add(period)
	consecutiveErrors := 0

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if p.pendingGeometry.CompareAndSwap(true, false) {
			p.applyPendingGeometry()
		}

		frame, err := p.screen.Capture()
		switch {
		case err == nil:
			consecutiveErrors = 0
			select {
			case q1 <- frame:
			default:
				p.counters.AddFramesDropped(1)
			}
			p.counters.AddFramesCaptured(1)
		case errors.Is(err, capture.ErrNoFrame):
			// not an error; nothing changed this tick
		default:
			consecutiveErrors++
			log.Warn("capture error", "error", err, "consecutive", consecutiveErrors)
			if consecutiveErrors > consecutiveErrorLimit {
				log.Error("capture error threshold exceeded, aborting pipeline")
				return
			}
		}

		now := time.Now()
		for !deadline.After(now) {
			deadline = deadline.Add(period)
		}
		select {
		case <-p.done:
			return
		case <-time.After(time.Until(deadline)):
		}
	}
}

// applyPendingGeometry reconfigures the capture backend in place and forces
// the next encoded frame to be a keyframe, so the resize itself becomes the
// keyframe boundary the new geometry takes effect at. Runs on the capture
// loop goroutine, the only safe caller of capture.Reconfigurable.
func (p *Pipeline) applyPendingGeometry() {
	r, ok := p.screen.(capture.Reconfigurable)
	if !ok {
		log.Warn("geometry change requested but capture backend does not support reconfiguration")
		return
	}
	cfg := p.cfg.Load()
	if err := r.Reconfigure(cfg.Video.Width, cfg.Video.Height); err != nil {
		log.Warn("geometry reconfigure failed", "error", err)
		return
	}
	p.enc.ForceKeyframe()
	log.Info("applied pending geometry change", "width", cfg.Video.Width, "height", cfg.Video.Height)
}

// encodeLoop consumes q1, converts/encodes, and blocks (applying
// backpressure rather than dropping) when q2 is full.
func (p *Pipeline) encodeLoop(q1 <-chan *capture.Frame, q2 chan<- *encode.CodedPacket) {
	defer p.wg.Done()
	defer close(q2)

	for {
		select {
		case frame, ok := <-q1:
			if !ok {
				return
			}
			pkt, err := p.enc.Encode(frame)
			if err != nil {
				log.Warn("encode error", "error", err)
				p.counters.AddFramesDropped(1)
				continue
			}
			p.counters.AddFramesEncoded(1)

			select {
			case q2 <- pkt:
			case <-p.done:
				return
			}
		case <-p.done:
			if pkt, ok := p.enc.Flush(); ok {
				select {
				case q2 <- pkt:
				default:
				}
			}
			return
		}
	}
}

// transportSendLoop consumes q2 and fragments/sends each coded packet.
func (p *Pipeline) transportSendLoop(q2 <-chan *encode.CodedPacket) {
	defer p.wg.Done()

	for {
		select {
		case pkt, ok := <-q2:
			if !ok {
				return
			}
			if err := p.transport.Send(wire.KindVideo, pkt.PTS, pkt.IsKeyframe, pkt.Data); err != nil {
				log.Warn("transport send error", "error", err)
			}
		case <-p.done:
			return
		}
	}
}

// receiveLoop drives the transport's receive side: reassembled Input/Control
// payloads are decoded and handed to the injector, everything else
// (video/audio, still-fragmenting chains) is ignored here.
func (p *Pipeline) receiveLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		pkt, payload, err := p.transport.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("receive error", "error", err)
			continue
		}
		if pkt == nil || payload == nil {
			continue
		}
		if pkt.Kind != wire.KindInput && pkt.Kind != wire.KindControl {
			continue
		}
		ev, err := inputinjection.Decode(payload)
		if err != nil {
			log.Warn("input decode error", "error", err)
			continue
		}
		if err := p.injector.Handle(ev); err != nil {
			log.Warn("input injection rejected", "error", err)
		}
	}
}
