// Package encode converts captured frames into coded video packets: pixel
// format conversion, keyframe cadence, and dispatch to a pluggable codec
// backend.
package encode

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lanternops/streamcast/internal/capture"
	"github.com/lanternops/streamcast/internal/config"
)

// Errors in the EncodeError family.
var (
	ErrUnsupported  = errors.New("encode: backend does not support the requested codec/config")
	ErrCodecFailure = errors.New("encode: codec backend returned an error")
)

// CodedPacket is one encoded access unit ready for packetization.
type CodedPacket struct {
	Data          []byte
	PTS           uint64
	IsKeyframe    bool
	SequenceFrame uint64
}

// backend is the capability interface a codec implementation satisfies.
// Small and focused, matching the capability-interface pattern used
// throughout this codebase instead of one monolithic encoder interface.
type backend interface {
	Name() string
	IsHardware() bool
	IsPlaceholder() bool
	Configure(width, height, fps, bitrateKbps int) error
	Encode(nv12 []byte, forceKeyframe bool) ([]byte, error)
	Close() error
}

// flusher is an optional capability: backends that buffer internally can
// emit any trailing access unit on shutdown.
type flusher interface {
	Flush() ([]byte, error)
}

type backendFactory func() (backend, error)

var (
	factoryMu        sync.Mutex
	hardwareFactories []backendFactory
)

// registerHardwareFactory adds a candidate hardware/software backend to be
// tried, in registration order, before falling back to the always-available
// placeholder. Called from backend-specific files' init().
func registerHardwareFactory(f backendFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	hardwareFactories = append(hardwareFactories, f)
}

// Encoder drives a backend across the encoder worker's lifetime: pixel
// conversion, keyframe cadence, and a mutex guarding the backend so
// UpdateConfig's bitrate changes can apply without stopping the pipeline.
type Encoder struct {
	mu      sync.Mutex
	be      backend
	keyframeInterval int
	frameCount       uint64
	forceNext        atomic.Bool
}

// New selects a backend (preferring a registered hardware/real codec
// factory that successfully configures for cfg, falling back to the
// placeholder) and configures it.
func New(cfg config.VideoConfig) (*Encoder, error) {
	be, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Encoder{be: be, keyframeInterval: cfg.KeyframeInterval}, nil
}

func newBackend(cfg config.VideoConfig) (backend, error) {
	factoryMu.Lock()
	factories := append([]backendFactory(nil), hardwareFactories...)
	factoryMu.Unlock()

	for _, f := range factories {
		be, err := f()
		if err != nil {
			continue
		}
		if err := be.Configure(cfg.Width, cfg.Height, cfg.FPS, cfg.BitrateKbps); err != nil {
			continue
		}
		return be, nil
	}

	sw := newSoftwareBackend()
	if err := sw.Configure(cfg.Width, cfg.Height, cfg.FPS, cfg.BitrateKbps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return sw, nil
}

// Encode converts frame to NV12 if needed, tags a keyframe at every
// multiple of keyframe_interval, and dispatches to the backend.
func (e *Encoder) Encode(frame *capture.Frame) (*CodedPacket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var nv12 []byte
	switch frame.Format {
	case capture.FormatNV12:
		nv12 = frame.Data
	case capture.FormatBGRA:
		nv12 = bgraToNV12(frame.Data, frame.Width, frame.Height, frame.Stride)
	default:
		return nil, fmt.Errorf("%w: unsupported pixel format %v", ErrUnsupported, frame.Format)
	}

	forceKey := e.frameCount%uint64(e.keyframeInterval) == 0 || e.forceNext.Swap(false)
	data, err := e.be.Encode(nv12, forceKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecFailure, err)
	}

	pkt := &CodedPacket{
		Data:          data,
		PTS:           frame.Sequence,
		IsKeyframe:    forceKey,
		SequenceFrame: e.frameCount,
	}
	e.frameCount++
	return pkt, nil
}

// SetBitrate applies immediately, matching the pipeline's "bitrate changes
// take effect immediately" UpdateConfig contract.
func (e *Encoder) SetBitrate(kbps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	type bitrateSetter interface{ SetBitrateKbps(int) error }
	if s, ok := e.be.(bitrateSetter); ok {
		return s.SetBitrateKbps(kbps)
	}
	return nil
}

// ForceKeyframe makes the next Encode call produce a keyframe regardless of
// keyframe_interval cadence, used when the caller just changed something
// (e.g. capture geometry) that invalidates inter-frame prediction.
func (e *Encoder) ForceKeyframe() {
	e.forceNext.Store(true)
}

// Flush drains any buffered trailing packet from the backend on shutdown.
func (e *Encoder) Flush() (*CodedPacket, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.be.(flusher); ok {
		data, err := f.Flush()
		if err == nil && len(data) > 0 {
			return &CodedPacket{Data: data}, true
		}
	}
	return nil, false
}

// BackendName reports which backend is active, for --list-encoders.
func (e *Encoder) BackendName() string { return e.be.Name() }

// BackendIsPlaceholder reports whether the active backend is the
// non-conforming placeholder rather than a real codec.
func (e *Encoder) BackendIsPlaceholder() bool { return e.be.IsPlaceholder() }

func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.be.Close()
}
