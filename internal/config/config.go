// Package config loads Athernet's YAML configuration file, the way the
// teacher's receiver configures itself: one struct per subsystem, sane
// defaults filled in after unmarshal.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full Athernet configuration.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Physical  PhysicalConfig  `yaml:"physical"`
	Link      LinkConfig      `yaml:"link"`
	Transport TransportConfig `yaml:"transport"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AudioConfig selects the sound devices and sample rate.
type AudioConfig struct {
	InputDevice     string `yaml:"input_device"`  // not consulted: audioio.Open always uses the system default input
	OutputDevice    string `yaml:"output_device"` // not consulted: audioio.Open always uses the system default output
	SampleRate      int    `yaml:"sample_rate"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	RecordWAV       string `yaml:"record_wav,omitempty"` // optional debug capture path
}

// PhysicalConfig tunes the modem's preamble and framing parameters.
type PhysicalConfig struct {
	PreambleLen     int     `yaml:"preamble_len"`
	PreambleFreqLo  float32 `yaml:"preamble_freq_lo"`
	PreambleFreqHi  float32 `yaml:"preamble_freq_hi"`
	PaddingZeroByte int     `yaml:"padding_zero_byte"`
	MaxFrameBytes   int     `yaml:"max_frame_bytes"`
	RingCapacity    int     `yaml:"ring_capacity"`
}

// LinkConfig tunes the stop-and-wait link layer.
type LinkConfig struct {
	Address        byte `yaml:"address"`
	MaxPayload     int  `yaml:"max_payload"`
	AckTimeoutMS   int  `yaml:"ack_timeout_ms"`
	IdleTimeoutMS  int  `yaml:"idle_timeout_ms"`
	ErrorThreshold int  `yaml:"error_threshold"`
}

// TransportConfig tunes the reliable byte-stream layer.
type TransportConfig struct {
	SegmentLen     int `yaml:"segment_len"`
	InitialRTTMS   int `yaml:"initial_rtt_ms"`
	IdleBeaconMS   int `yaml:"idle_beacon_ms"`
}

// BridgeConfig configures the host-network egress side.
type BridgeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	PeerAddr   string `yaml:"peer_addr"`
	NATMinPort int    `yaml:"nat_min_port"`
	NATMaxPort int    `yaml:"nat_max_port"`
}

// LoggingConfig controls log verbosity/destination.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Load reads and parses filename, filling in defaults for anything left
// unset.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.Physical.PreambleLen == 0 {
		c.Physical.PreambleLen = 200
	}
	if c.Physical.PreambleFreqLo == 0 {
		c.Physical.PreambleFreqLo = 3000
	}
	if c.Physical.PreambleFreqHi == 0 {
		c.Physical.PreambleFreqHi = 8000
	}
	if c.Physical.MaxFrameBytes == 0 {
		c.Physical.MaxFrameBytes = 2048
	}
	if c.Physical.RingCapacity == 0 {
		c.Physical.RingCapacity = 1 << 20
	}
	if c.Link.MaxPayload == 0 {
		c.Link.MaxPayload = 250
	}
	if c.Link.AckTimeoutMS == 0 {
		c.Link.AckTimeoutMS = 150
	}
	if c.Link.IdleTimeoutMS == 0 {
		c.Link.IdleTimeoutMS = 1000
	}
	if c.Link.ErrorThreshold == 0 {
		c.Link.ErrorThreshold = 15
	}
	if c.Transport.SegmentLen == 0 {
		c.Transport.SegmentLen = 256
	}
	if c.Transport.InitialRTTMS == 0 {
		c.Transport.InitialRTTMS = 10
	}
	if c.Transport.IdleBeaconMS == 0 {
		c.Transport.IdleBeaconMS = 20
	}
	if c.Bridge.NATMinPort == 0 {
		c.Bridge.NATMinPort = 40000
	}
	if c.Bridge.NATMaxPort == 0 {
		c.Bridge.NATMaxPort = 50000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9110"
	}
}
