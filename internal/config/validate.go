package config

import (
	"fmt"

	"github.com/lanternops/streamcast/internal/logging"
	"github.com/lanternops/streamcast/internal/wire"
)

// minPacketSize is the smallest max_packet_size that can carry a header
// plus at least one byte of payload.
const minPacketSize = wire.HeaderSize + 1

var log = logging.L("config")

// InvalidConfigError marks a fatal validation failure — one of the bounds
// that, unlike the clamped warnings below, cannot be silently repaired.
type InvalidConfigError struct {
	Field string
	Msg   string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Msg)
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
var validCodecs = map[Codec]bool{CodecH264: true, CodecH265: true, CodecVP9: true}
var validTransports = map[Transport]bool{TransportUDP: true, TransportWebRTC: true}

// Validate checks the config and splits findings into warnings (logged,
// non-fatal, some fields clamped to a safe value) and fatals (the
// InvalidConfig bounds: zero/negative geometry, fps out of [1,240],
// bitrate out of [1000,100000], non-positive port).
func (c *Config) Validate() (warnings []error, fatals []error) {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		fatals = append(fatals, &InvalidConfigError{"video.width/height", "must both be greater than zero"})
	}
	if c.Video.FPS < 1 || c.Video.FPS > 240 {
		fatals = append(fatals, &InvalidConfigError{"video.fps", "must be in [1, 240]"})
	}
	if c.Video.BitrateKbps < 1000 || c.Video.BitrateKbps > 100000 {
		fatals = append(fatals, &InvalidConfigError{"video.bitrate_kbps", "must be in [1000, 100000]"})
	}
	if c.Network.Port <= 0 {
		fatals = append(fatals, &InvalidConfigError{"network.port", "must be greater than zero"})
	}

	if c.Video.KeyframeInterval < 1 {
		warnings = append(warnings, fmt.Errorf("video.keyframe_interval %d is below minimum 1, clamping", c.Video.KeyframeInterval))
		c.Video.KeyframeInterval = 1
	}
	if !validCodecs[c.Video.Codec] {
		warnings = append(warnings, fmt.Errorf("video.codec %q is unrecognized, defaulting to h264", c.Video.Codec))
		c.Video.Codec = CodecH264
	}
	if !validTransports[c.Network.Transport] {
		warnings = append(warnings, fmt.Errorf("network.transport %q is unrecognized, defaulting to udp", c.Network.Transport))
		c.Network.Transport = TransportUDP
	}
	if c.Network.MaxPacketSize < minPacketSize {
		warnings = append(warnings, fmt.Errorf("network.max_packet_size %d is below the wire header floor, clamping to %d", c.Network.MaxPacketSize, minPacketSize))
		c.Network.MaxPacketSize = minPacketSize
	}
	if c.Logging.Level != "" && !validLogLevels[c.Logging.Level] {
		warnings = append(warnings, fmt.Errorf("logging.level %q is not valid, defaulting to info", c.Logging.Level))
		c.Logging.Level = "info"
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		warnings = append(warnings, fmt.Errorf("logging.format %q is not valid, defaulting to text", c.Logging.Format))
		c.Logging.Format = "text"
	}
	if c.Capture.MonitorIndex < 0 {
		warnings = append(warnings, fmt.Errorf("capture.monitor_index %d is negative, clamping to 0", c.Capture.MonitorIndex))
		c.Capture.MonitorIndex = 0
	}

	return warnings, fatals
}
