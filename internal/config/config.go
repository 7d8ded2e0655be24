// Package config loads emtrace settings from YAML and validates them
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/emtrace/internal/protocol"
	"github.com/roach88/emtrace/internal/store"
)

//go:embed schema.cue
var schemaSource string

// Byte order names accepted in configuration.
const (
	LittleEndian = "little"
	BigEndian    = "big"
)

// Config holds capture and storage settings.
type Config struct {
	// TimestampRawMax is the device tick counter period (counter max + 1).
	TimestampRawMax uint64 `yaml:"timestamp_raw_max" json:"timestamp_raw_max"`

	// MsPerTick converts ticks to milliseconds.
	MsPerTick float64 `yaml:"ms_per_tick" json:"ms_per_tick"`

	ByteOrder  string `yaml:"byte_order" json:"byte_order"`
	EventsFile string `yaml:"events_file" json:"events_file"`
	TypesFile  string `yaml:"types_file" json:"types_file"`

	// CaptureTimeoutMs bounds a capture session; 0 means no limit.
	CaptureTimeoutMs int `yaml:"capture_timeout_ms" json:"capture_timeout_ms"`
}

// Default returns the settings of a Nordic RTC based device.
func Default() Config {
	return Config{
		TimestampRawMax:  protocol.DefaultTimestampRawMax,
		MsPerTick:        protocol.DefaultMsPerTick,
		ByteOrder:        LittleEndian,
		EventsFile:       store.DefaultEventsFile,
		TypesFile:        store.DefaultTypesFile,
		CaptureTimeoutMs: 0,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown fields are rejected. An empty document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the #Config schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Order returns the frame byte order.
func (c Config) Order() binary.ByteOrder {
	if c.ByteOrder == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// CaptureTimeout returns the session bound, or 0 for none.
func (c Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutMs) * time.Millisecond
}

// DecoderOptions returns the decoder settings described by c.
func (c Config) DecoderOptions() []protocol.DecoderOption {
	return []protocol.DecoderOption{
		protocol.WithByteOrder(c.Order()),
		protocol.WithTimestampRawMax(c.TimestampRawMax),
		protocol.WithMsPerTick(c.MsPerTick),
	}
}

// Paths returns the store file pair.
func (c Config) Paths() store.Paths {
	return store.Paths{Events: c.EventsFile, Types: c.TypesFile}
}
