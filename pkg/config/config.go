package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/atomcas/pkg/log"
)

// Config is the top-level backend configuration file. CLI flags take
// precedence over any value set here (spec §2 ambient stack).
type Config struct {
	BackendURI    string          `yaml:"backendURI"`
	DataDir       string          `yaml:"dataDir"`
	WarmStorePath string          `yaml:"warmStorePath"`
	WriteBack     WriteBackConfig `yaml:"writeBack"`
	MNS           MNSConfig       `yaml:"mns"`
	Log           LogConfig       `yaml:"log"`
	Events        EventsConfig    `yaml:"events"`
}

// WriteBackConfig sizes the connection pool and the write-back queue
// (spec §4.1, §4.10).
type WriteBackConfig struct {
	PoolSize      int  `yaml:"poolSize"`
	Workers       int  `yaml:"workers"`
	HighWatermark int  `yaml:"highWatermark"`
	LowWatermark  int  `yaml:"lowWatermark"`
	Stall         bool `yaml:"stall"`
}

// MNSConfig names the stable workspace name published on each
// publish_workspace call (spec §4.11) and how long the binding lives.
type MNSConfig struct {
	Name     string `yaml:"name"`
	Lifetime string `yaml:"lifetime"`
	TTL      string `yaml:"ttl"`
}

// LifetimeDuration parses Lifetime, falling back to DefaultMNSLifetime
// when blank or unparseable.
func (m MNSConfig) LifetimeDuration() time.Duration {
	return parseDurationOr(m.Lifetime, DefaultMNSLifetime)
}

// TTLDuration parses TTL, falling back to DefaultMNSTTL when blank or
// unparseable.
func (m MNSConfig) TTLDuration() time.Duration {
	return parseDurationOr(m.TTL, DefaultMNSTTL)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// EventsConfig sizes the activity broker's channels (pkg/events). The
// broker buffer absorbs a burst of publishes between distribution
// loop turns; the per-subscriber buffer absorbs a slow consumer (a CLI
// watch command, a test) without blocking the publisher.
type EventsConfig struct {
	BufferSize           int `yaml:"bufferSize"`
	SubscriberBufferSize int `yaml:"subscriberBufferSize"`
}

// LogConfig mirrors pkg/log.Config, kept as plain strings here since
// the YAML file is the outermost layer and pkg/log.Config.Level is a
// typed string.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

const (
	DefaultPoolSize      = 4
	DefaultWorkers       = 6
	DefaultHighWatermark = 1000
	DefaultLowWatermark  = 100
	DefaultMNSName       = "atomcas-workspace"
	DefaultMNSLifetime   = 24 * time.Hour
	DefaultMNSTTL        = 5 * time.Minute
	DefaultBackendURI    = "cas://localhost:5001/default"
	DefaultDataDir       = "./atomcas-data"
	DefaultLogLevel      = string(log.InfoLevel)

	DefaultEventBufferSize           = 100
	DefaultEventSubscriberBufferSize = 50
)

// Default returns a Config with every field set to its documented
// default, suitable for running with no config file at all.
func Default() Config {
	return Config{
		BackendURI: DefaultBackendURI,
		DataDir:    DefaultDataDir,
		WriteBack: WriteBackConfig{
			PoolSize:      DefaultPoolSize,
			Workers:       DefaultWorkers,
			HighWatermark: DefaultHighWatermark,
			LowWatermark:  DefaultLowWatermark,
		},
		MNS: MNSConfig{
			Name:     DefaultMNSName,
			Lifetime: DefaultMNSLifetime.String(),
			TTL:      DefaultMNSTTL.String(),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Events: EventsConfig{
			BufferSize:           DefaultEventBufferSize,
			SubscriberBufferSize: DefaultEventSubscriberBufferSize,
		},
	}
}

// Load reads path, merges it over Default() (zero-valued fields in the
// file fall back to the default rather than to Go's zero value), and
// returns the result. A missing file is not an error; Load then returns
// the unmodified default, matching how a CLI invocation with no --config
// flag should behave.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	cfg.mergeFrom(fromFile)
	return cfg, nil
}

func (c *Config) mergeFrom(o Config) {
	if o.BackendURI != "" {
		c.BackendURI = o.BackendURI
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.WarmStorePath != "" {
		c.WarmStorePath = o.WarmStorePath
	}
	if o.WriteBack.PoolSize != 0 {
		c.WriteBack.PoolSize = o.WriteBack.PoolSize
	}
	if o.WriteBack.Workers != 0 {
		c.WriteBack.Workers = o.WriteBack.Workers
	}
	if o.WriteBack.HighWatermark != 0 {
		c.WriteBack.HighWatermark = o.WriteBack.HighWatermark
	}
	if o.WriteBack.LowWatermark != 0 {
		c.WriteBack.LowWatermark = o.WriteBack.LowWatermark
	}
	c.WriteBack.Stall = o.WriteBack.Stall
	if o.MNS.Name != "" {
		c.MNS.Name = o.MNS.Name
	}
	if o.MNS.Lifetime != "" {
		c.MNS.Lifetime = o.MNS.Lifetime
	}
	if o.MNS.TTL != "" {
		c.MNS.TTL = o.MNS.TTL
	}
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	c.Log.JSON = c.Log.JSON || o.Log.JSON
	if o.Events.BufferSize != 0 {
		c.Events.BufferSize = o.Events.BufferSize
	}
	if o.Events.SubscriberBufferSize != 0 {
		c.Events.SubscriberBufferSize = o.Events.SubscriberBufferSize
	}
}
