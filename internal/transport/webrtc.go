package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/lanternops/streamcast/internal/metrics"
	"github.com/lanternops/streamcast/internal/wire"
	"github.com/lanternops/streamcast/internal/workerpool"
)

// drainTimeout bounds how long Close waits for in-flight sample writes.
const drainTimeout = 500 * time.Millisecond

// statsPollInterval paces how often GetStats() is polled for the RTT/
// fraction-lost pair surfaced through Stats.
const statsPollInterval = 2 * time.Second

// SignalFunc performs the SDP offer/answer exchange out-of-band (e.g. over
// a signalling websocket or HTTP endpoint the caller owns) and returns the
// remote description to apply. Full peer-connection signalling is outside
// this package's scope; WebRTC exists to exercise pion/webrtc's track and
// stats surface, not to provide a complete signalling stack.
type SignalFunc func(offer webrtc.SessionDescription) (answer webrtc.SessionDescription, err error)

// WebRTC is a Transport backed by a single pion PeerConnection video track.
// Fragmentation still applies on top of it: large coded frames are chunked
// the same way as for UDP before being handed to the track as RTP samples.
type WebRTC struct {
	maxPacketSize int
	counters      *metrics.Counters
	signal        SignalFunc

	pc     *webrtc.PeerConnection
	track  *webrtc.TrackLocalStaticSample
	sender *webrtc.RTPSender
	pool   *workerpool.Pool

	sequenceMu sync.Mutex
	sequence   uint32

	pollCtx    context.Context
	pollCancel context.CancelFunc
}

// NewWebRTC returns a WebRTC transport. iceServers may be empty for a
// same-host/LAN deployment with no NAT traversal needs.
func NewWebRTC(maxPacketSize int, iceServers []string, signal SignalFunc, counters *metrics.Counters) (*WebRTC, error) {
	cfg := webrtc.Configuration{}
	for _, s := range iceServers {
		cfg.ICEServers = append(cfg.ICEServers, webrtc.ICEServer{URLs: []string{s}})
	}

	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: new peer connection: %v", ErrBind, err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video", "streamcast",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: new track: %v", ErrBind, err)
	}
	sender, err := pc.AddTrack(track)
	if err != nil {
		return nil, fmt.Errorf("%w: add track: %v", ErrBind, err)
	}

	pollCtx, pollCancel := context.WithCancel(context.Background())
	w := &WebRTC{
		maxPacketSize: maxPacketSize,
		counters:      counters,
		signal:        signal,
		pc:            pc,
		track:         track,
		sender:        sender,
		pool:          workerpool.New(2, 64),
		pollCtx:       pollCtx,
		pollCancel:    pollCancel,
	}

	go w.statsPollLoop()
	go w.rtcpReadLoop()

	return w, nil
}

// statsPollLoop periodically extracts RTT and fraction-lost from the peer
// connection's aggregated stats report and records them on counters, so a
// diagnostics client polling Stats() sees live WebRTC link quality.
func (w *WebRTC) statsPollLoop() {
	ticker := time.NewTicker(statsPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.pollCtx.Done():
			return
		case <-ticker.C:
			rttMs, fractionLost, ok := w.Stats(w.pc.GetStats())
			if ok {
				w.counters.SetWebRTCStats(rttMs, fractionLost)
			}
		}
	}
}

// rtcpReadLoop reads raw RTCP packets directly off the video track's RTP
// sender — the lower-level path alongside the GetStats()-based
// statsPollLoop, used here just to log loss as receiver reports arrive
// rather than waiting for the next aggregated poll.
func (w *WebRTC) rtcpReadLoop() {
	buf := make([]byte, 1500)
	for {
		n, _, err := w.sender.Read(buf)
		if err != nil {
			return
		}
		packets, err := decodeReceiverReports(buf[:n])
		if err != nil {
			continue
		}
		for _, pkt := range packets {
			rr, ok := pkt.(*rtcp.ReceiverReport)
			if !ok || len(rr.Reports) == 0 {
				continue
			}
			log.Debug("rtcp receiver report", "fractionLost", rr.Reports[0].FractionLost)
		}
	}
}

func (w *WebRTC) Bind(ctx context.Context) error {
	offer, err := w.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("%w: create offer: %v", ErrBind, err)
	}
	if err := w.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("%w: set local description: %v", ErrBind, err)
	}

	if w.signal == nil {
		// No signalling hook supplied: bind succeeds but no remote peer
		// will ever connect. This is the stub mode referenced in the
		// design notes — enough of the surface to exercise the track and
		// stats machinery without a full signalling stack.
		return nil
	}

	answer, err := w.signal(offer)
	if err != nil {
		return fmt.Errorf("%w: signal: %v", ErrBind, err)
	}
	if err := w.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("%w: set remote description: %v", ErrBind, err)
	}
	return nil
}

// Send writes one coded access unit to the video track. Each chunk
// produced by the byte-code-boundary chunker is dispatched through a
// bounded worker pool so a momentarily slow write never stalls the
// packetizer loop's sequencing of the next frame.
func (w *WebRTC) Send(kind wire.Kind, timestampUs uint64, keyframe bool, data []byte) error {
	maxPayload := w.maxPacketSize - wire.HeaderSize
	chunks := wire.Chunk(data, maxPayload)

	for _, chunk := range chunks {
		chunk := chunk
		w.sequenceMu.Lock()
		w.sequence++
		w.sequenceMu.Unlock()

		submitted := w.pool.Submit(func() {
			sample := media.Sample{Data: chunk, Duration: 0}
			if err := w.track.WriteSample(sample); err != nil {
				log.Warn("webrtc sample write failed", "error", err)
				return
			}
			w.counters.AddPacketsSent(1)
			w.counters.AddBytesSent(uint64(len(chunk)))
		})
		if !submitted {
			return fmt.Errorf("%w: dispatch queue full", ErrSend)
		}
	}
	return nil
}

// Recv is not implemented for the WebRTC backend in this stub: incoming
// media/data channels are out of scope, matching the open question that
// only the datagram transport is specified end-to-end.
func (w *WebRTC) Recv(ctx context.Context) (*wire.Packet, []byte, error) {
	<-ctx.Done()
	return nil, nil, ctx.Err()
}

// Stats extracts RTT and fraction-lost from the most recent RTCP receiver
// report, for diagnostic display only — this is never fed back into
// bitrate control.
func (w *WebRTC) Stats(report webrtc.StatsReport) (rttMs float64, fractionLost float64, ok bool) {
	for _, s := range report {
		if rr, isRR := s.(webrtc.RemoteInboundRTPStreamStats); isRR {
			return float64(rr.RoundTripTime) * 1000, float64(rr.FractionLost), true
		}
	}
	return 0, 0, false
}

// decodeReceiverReports is kept alongside Stats as the lower-level parse
// step when reading raw RTCP packets directly off a transceiver instead of
// through GetStats().
func decodeReceiverReports(raw []byte) ([]rtcp.Packet, error) {
	return rtcp.Unmarshal(raw)
}

func (w *WebRTC) Close() error {
	w.pollCancel()
	w.pool.StopAccepting()
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	w.pool.Drain(ctx)
	return w.pc.Close()
}

var _ Transport = (*WebRTC)(nil)
