// Package config reads the YAML configuration of a load.
//
//	loader:
//	  buffer_size: 100000
//	  id_type: string
//	  vertex_id_key: uid
//	  incremental: false
//	storage:
//	  backend: badger
//	  data_dir: /var/lib/batchgraph
//	logging:
//	  level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-batchgraph/pkg/validation"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"

	DefaultBufferSize = 100000
	DefaultIDType     = "object"
	DefaultBackend    = BackendMemory
	DefaultLogLevel   = "info"
)

var (
	idTypes   = []string{"object", "number", "string", "url"}
	backends  = []string{BackendMemory, BackendBadger}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// Config is the configuration of one load
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoaderConfig configures the batch controller
type LoaderConfig struct {
	BufferSize  int64  `yaml:"buffer_size"`
	IDType      string `yaml:"id_type"`
	VertexIDKey string `yaml:"vertex_id_key"`
	EdgeIDKey   string `yaml:"edge_id_key"`
	Incremental bool   `yaml:"incremental"`
}

// StorageConfig selects and configures the backing graph
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// DataDir holds the WAL of the memory backend or the Badger files. An
	// empty DataDir keeps everything in memory.
	DataDir string `yaml:"data_dir"`
	// UserSuppliedIDs lets the memory backend store external ids natively
	UserSuppliedIDs   bool     `yaml:"user_supplied_ids"`
	IndexedProperties []string `yaml:"indexed_properties"`
	SyncWrites        bool     `yaml:"sync_writes"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090"
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, fills in defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Loader.BufferSize = validation.DefaultOr(c.Loader.BufferSize, DefaultBufferSize)
	c.Loader.IDType = strings.ToLower(validation.DefaultOr(c.Loader.IDType, DefaultIDType))
	c.Storage.Backend = strings.ToLower(validation.DefaultOr(c.Storage.Backend, DefaultBackend))
	c.Logging.Level = strings.ToLower(validation.DefaultOr(c.Logging.Level, DefaultLogLevel))
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config")
	cv.Positive("loader.buffer_size", c.Loader.BufferSize).
		OneOf("loader.id_type", c.Loader.IDType, idTypes).
		OneOf("storage.backend", c.Storage.Backend, backends).
		OneOf("logging.level", c.Logging.Level, logLevels).
		When(c.Loader.Incremental && !c.NativeVertexIDs(), func(v *validation.ConfigValidator) {
			v.Required("loader.vertex_id_key", c.Loader.VertexIDKey)
		}).
		When(c.Storage.Backend == BackendBadger, func(v *validation.ConfigValidator) {
			v.Custom("storage.user_supplied_ids", func() error {
				if c.Storage.UserSuppliedIDs {
					return fmt.Errorf("the badger backend assigns its own ids")
				}
				return nil
			})
		})
	return cv.Validate()
}

// NativeVertexIDs reports whether the configured backend stores external
// vertex ids itself.
func (c *Config) NativeVertexIDs() bool {
	return c.Storage.Backend == BackendMemory && c.Storage.UserSuppliedIDs
}

// IndexedProperties returns the property keys the backend should index.
// Incremental loads look vertices up by the vertex id key, so it is always
// included for them.
func (c *Config) IndexedProperties() []string {
	keys := slices.Clone(c.Storage.IndexedProperties)
	if c.Loader.Incremental && c.Loader.VertexIDKey != "" && !slices.Contains(keys, c.Loader.VertexIDKey) {
		keys = append(keys, c.Loader.VertexIDKey)
	}
	return keys
}
