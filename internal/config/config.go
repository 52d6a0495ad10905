// Package config loads a Config from a TOML file via
// github.com/pelletier/go-toml/v2. The original firmware SDK configures
// everything at compile time through ticos/config.h macros; a Go SDK has
// no such header, so this is new ambient surface that gathers the same
// knobs the original hardcodes into one runtime-loadable struct, in the
// spirit of a DeviceParams/DefaultParams shape.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
	"github.com/ticos-sdk/go-ticos/internal/logging"
)

// Config gathers every runtime-tunable knob the SDK exposes.
type Config struct {
	// Device identifies this device to the cloud endpoint and is
	// embedded in every event envelope and HTTP request.
	Device DeviceConfig `toml:"device"`

	// EventStorageCapacity bounds the event ring buffer's size (default:
	// DefaultEventStorageCapacity).
	EventStorageCapacity int `toml:"event_storage_capacity"`

	// PacketizerMTU bounds a single chunk's size (default:
	// DefaultPacketizerMTU).
	PacketizerMTU int `toml:"packetizer_mtu"`

	// ActiveSources is the packetizer's initial active-sources mask.
	// Zero means "all sources", matching the original's default.
	ActiveSources ticos.DataSourceMask `toml:"active_sources"`

	// CDRMaxSources bounds the CDR registry (default: DefaultCDRMaxSources).
	CDRMaxSources int `toml:"cdr_max_sources"`

	// CDRMaxEncodedMetadataLen bounds the pre-serialized CDR metadata
	// buffer per recording (default: DefaultCDRMaxEncodedMetadataLen).
	CDRMaxEncodedMetadataLen int `toml:"cdr_max_encoded_metadata_len"`

	// CoredumpAlignmentBytes is the buffered coredump storage's write
	// granularity. Zero disables buffering.
	CoredumpAlignmentBytes int `toml:"coredump_alignment_bytes"`

	HTTP    HTTPConfig    `toml:"http"`
	Logging LoggingConfig `toml:"logging"`
}

// DeviceConfig mirrors sTicosDeviceInfo, the platform device-info
// accessor the original links against at compile time.
type DeviceConfig struct {
	Serial          string `toml:"serial"`
	SoftwareType    string `toml:"software_type"`
	SoftwareVersion string `toml:"software_version"`
	HardwareVersion string `toml:"hardware_version"`

	// BuildID is attached to every event envelope and coredump when set
	// (TICOS_EVENT_INCLUDE_BUILD_ID's equivalent: omitted if empty).
	BuildID []byte `toml:"build_id"`

	// EncodeDeviceSerial mirrors TICOS_EVENT_INCLUDE_DEVICE_SERIAL: by
	// default the serial is left out of every event envelope to save
	// space, since it's already implied by the chunks endpoint's
	// device-identifier path segment.
	EncodeDeviceSerial bool `toml:"encode_device_serial"`
}

// HTTPConfig gathers the chunk-upload endpoint, project key, and retry
// policy used by the HTTP transport.
type HTTPConfig struct {
	ChunksHost string `toml:"chunks_host"`
	DeviceHost string `toml:"device_host"` // OTA/device API host
	ProjectKey string `toml:"project_key"`

	MaxRetries     int           `toml:"max_retries"`
	BaseDelayMs    int           `toml:"base_delay_ms"`
	MaxDelayMs     int           `toml:"max_delay_ms"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// LoggingConfig selects the logging.Logger's level/format.
type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
	JSON  bool   `toml:"json"`
}

// Default returns the SDK's built-in defaults, matching the constants
// the original bakes in at compile time via ticos/config.h.
func Default() *Config {
	return &Config{
		EventStorageCapacity:     ticos.DefaultEventStorageCapacity,
		PacketizerMTU:            ticos.DefaultPacketizerMTU,
		ActiveSources:            ticos.DataSourceMaskAll,
		CDRMaxSources:            ticos.DefaultCDRMaxSources,
		CDRMaxEncodedMetadataLen: ticos.DefaultCDRMaxEncodedMetadataLen,
		HTTP: HTTPConfig{
			ChunksHost:     "chunks.ticos.com",
			DeviceHost:     "device.ticos.com",
			MaxRetries:     4,
			BaseDelayMs:    4000,
			MaxDelayMs:     120000,
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses a TOML config file, starting from Default() so
// any field the file omits keeps its built-in value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.ActiveSources == 0 {
		cfg.ActiveSources = ticos.DataSourceMaskAll
	}
	return cfg, nil
}

// LoggingLevel maps the string level from the config file to a
// logging.LogLevel, defaulting to Info for an unrecognized value.
func (c *Config) LoggingLevel() logging.LogLevel {
	switch c.Logging.Level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// RetryDelays converts the HTTP retry delay knobs into
// httpclient.RetryPolicy's units. Returned as plain fields (not an
// httpclient import) to avoid a dependency cycle; callers construct
// httpclient.RetryPolicy{MaxRetries, BaseDelay, MaxDelay} from these.
func (c *HTTPConfig) RetryDelays() (base, max time.Duration) {
	return time.Duration(c.BaseDelayMs) * time.Millisecond, time.Duration(c.MaxDelayMs) * time.Millisecond
}
