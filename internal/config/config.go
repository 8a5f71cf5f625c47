// Package config loads and validates the streaming pipeline's
// configuration surface from a YAML file, environment overrides, and
// built-in defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Codec names a supported coded video format.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
	CodecVP9  Codec = "vp9"
)

// Preset names an encoder speed/quality tradeoff.
type Preset string

const (
	PresetUltraFast Preset = "ultrafast"
	PresetFast      Preset = "fast"
	PresetMedium    Preset = "medium"
	PresetSlow      Preset = "slow"
)

// Transport selects the network backend.
type Transport string

const (
	TransportUDP    Transport = "udp"
	TransportWebRTC Transport = "webrtc"
)

// VideoConfig governs capture resolution, encode cadence, and bitrate.
type VideoConfig struct {
	Width            int    `mapstructure:"width"`
	Height           int    `mapstructure:"height"`
	FPS              int    `mapstructure:"fps"`
	BitrateKbps      int    `mapstructure:"bitrate_kbps"`
	Codec            Codec  `mapstructure:"codec"`
	Preset           Preset `mapstructure:"preset"`
	KeyframeInterval int    `mapstructure:"keyframe_interval"`
}

// NetworkConfig governs the transport backend and wire limits.
type NetworkConfig struct {
	Transport     Transport `mapstructure:"transport"`
	Port          int       `mapstructure:"port"`
	BindAddress   string    `mapstructure:"bind_address"`
	MaxPacketSize int       `mapstructure:"max_packet_size"`
}

// CaptureConfig selects which display to capture.
type CaptureConfig struct {
	MonitorIndex int `mapstructure:"monitor_index"`
}

// InputConfig toggles which input-injection channels the receive path
// accepts Control/Input wire packets for.
type InputConfig struct {
	KeyboardEnabled bool `mapstructure:"keyboard_enabled"`
	MouseEnabled    bool `mapstructure:"mouse_enabled"`
	GamepadEnabled  bool `mapstructure:"gamepad_enabled"`
}

// LoggingConfig governs the ambient slog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full configuration surface described in the wire/CLI spec.
type Config struct {
	Video   VideoConfig   `mapstructure:"video"`
	Network NetworkConfig `mapstructure:"network"`
	Capture CaptureConfig `mapstructure:"capture"`
	Input   InputConfig   `mapstructure:"input"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Default returns the configuration's documented defaults, matching the
// bounds enforced by Validate.
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			Width:            1920,
			Height:           1080,
			FPS:              60,
			BitrateKbps:      10000,
			Codec:            CodecH264,
			Preset:           PresetFast,
			KeyframeInterval: 60,
		},
		Network: NetworkConfig{
			Transport:     TransportUDP,
			Port:          8080,
			BindAddress:   "0.0.0.0",
			MaxPacketSize: 1400,
		},
		Capture: CaptureConfig{MonitorIndex: 0},
		Input: InputConfig{
			KeyboardEnabled: true,
			MouseEnabled:    true,
			GamepadEnabled:  true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads cfgFile (or, if empty, searches the working directory and
// /etc/streamcast for streamcast.yaml), overlays STREAMCAST_-prefixed
// environment variables, and validates the result. Validation errors that
// clamp a field to a safe value are logged as warnings and do not prevent
// startup; errors named in the InvalidConfig family (§6 bounds) are fatal.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("streamcast")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/streamcast")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("STREAMCAST")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	warnings, fatals := cfg.Validate()
	for _, w := range warnings {
		log.Warn("config validation", "error", w)
	}
	if len(fatals) > 0 {
		return nil, fmt.Errorf("invalid config: %w", fatals[0])
	}

	return cfg, nil
}
