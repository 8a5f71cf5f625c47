// Package metrics holds the pipeline's monotone counters and the
// point-in-time snapshot derived from them.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of pipeline counters, safe to copy by value.
type Stats struct {
	FramesCaptured  uint64
	FramesEncoded   uint64
	FramesDropped   uint64
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64
	LastResetUnixNs int64

	// RTTMs and FractionLost come from the transport's most recent RTCP
	// receiver report, when the transport is one that has such a thing
	// (WebRTC). RTTAvailable is false for transports that don't.
	RTTMs        float64
	FractionLost float64
	RTTAvailable bool
}

// Counters is the live, concurrently-updated counter set backing Stats.
// Capture owns FramesCaptured, encode owns FramesEncoded, and the transport
// owns the packet/byte counters; FramesDropped is added to by both capture
// (queue full) and encode (encode failure). Every counter is an atomic, so
// concurrent adds from more than one goroutine are safe.
type Counters struct {
	framesCaptured  atomic.Uint64
	framesEncoded   atomic.Uint64
	framesDropped   atomic.Uint64
	packetsSent     atomic.Uint64
	packetsReceived atomic.Uint64
	bytesSent       atomic.Uint64
	bytesReceived   atomic.Uint64

	mu           sync.Mutex
	lastReset    time.Time
	rttMs        float64
	fractionLost float64
	rttAvailable bool
}

// New returns a zeroed Counters with its reset timestamp set to now.
func New(now time.Time) *Counters {
	c := &Counters{}
	c.mu.Lock()
	c.lastReset = now
	c.mu.Unlock()
	return c
}

func (c *Counters) AddFramesCaptured(n uint64)  { c.framesCaptured.Add(n) }
func (c *Counters) AddFramesEncoded(n uint64)   { c.framesEncoded.Add(n) }
func (c *Counters) AddFramesDropped(n uint64)   { c.framesDropped.Add(n) }
func (c *Counters) AddPacketsSent(n uint64)     { c.packetsSent.Add(n) }
func (c *Counters) AddPacketsReceived(n uint64) { c.packetsReceived.Add(n) }
func (c *Counters) AddBytesSent(n uint64)       { c.bytesSent.Add(n) }
func (c *Counters) AddBytesReceived(n uint64)   { c.bytesReceived.Add(n) }

// SetWebRTCStats records the most recent RTT/fraction-lost pair parsed from
// an RTCP receiver report. Transports with no such concept (UDP) never call
// this, so RTTAvailable stays false in their Stats snapshots.
func (c *Counters) SetWebRTCStats(rttMs, fractionLost float64) {
	c.mu.Lock()
	c.rttMs = rttMs
	c.fractionLost = fractionLost
	c.rttAvailable = true
	c.mu.Unlock()
}

// Snapshot returns a consistent-enough point-in-time copy of the counters.
// Individual fields are loaded one at a time, so a snapshot taken during
// updates may have some fields slightly behind others.
func (c *Counters) Snapshot() Stats {
	c.mu.Lock()
	reset := c.lastReset
	rttMs, fractionLost, rttAvailable := c.rttMs, c.fractionLost, c.rttAvailable
	c.mu.Unlock()

	return Stats{
		FramesCaptured:  c.framesCaptured.Load(),
		FramesEncoded:   c.framesEncoded.Load(),
		FramesDropped:   c.framesDropped.Load(),
		PacketsSent:     c.packetsSent.Load(),
		PacketsReceived: c.packetsReceived.Load(),
		BytesSent:       c.bytesSent.Load(),
		BytesReceived:   c.bytesReceived.Load(),
		LastResetUnixNs: reset.UnixNano(),
		RTTMs:           rttMs,
		FractionLost:    fractionLost,
		RTTAvailable:    rttAvailable,
	}
}

// Reset zeroes all counters and stamps a new reset time.
func (c *Counters) Reset(now time.Time) {
	c.framesCaptured.Store(0)
	c.framesEncoded.Store(0)
	c.framesDropped.Store(0)
	c.packetsSent.Store(0)
	c.packetsReceived.Store(0)
	c.bytesSent.Store(0)
	c.bytesReceived.Store(0)

	c.mu.Lock()
	c.lastReset = now
	c.rttMs, c.fractionLost, c.rttAvailable = 0, 0, false
	c.mu.Unlock()
}
