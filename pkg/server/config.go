package server

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPoolSize       = 10
	DefaultQueueSize      = 1000
	DefaultReadTimeout    = 5 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultMaxHeaderBytes = 8 << 10
)

// Config holds the settings shared by every server strategy. PoolSize and QueueSize are only
// used by the PooledServer
type Config struct {
	Host           string        `toml:"host" json:"host" mapstructure:"host" yaml:"host"`
	PoolSize       int           `toml:"pool_size" json:"pool_size" mapstructure:"pool_size" yaml:"pool_size"`
	QueueSize      int           `toml:"queue_size" json:"queue_size" mapstructure:"queue_size" yaml:"queue_size"`
	ReadTimeout    time.Duration `toml:"read_timeout" json:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout" json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxHeaderBytes int           `toml:"max_header_bytes" json:"max_header_bytes" mapstructure:"max_header_bytes" yaml:"max_header_bytes"`
}

func NewDefaultConfig() *Config {
	return &Config{
		PoolSize:       DefaultPoolSize,
		QueueSize:      DefaultQueueSize,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		MaxHeaderBytes: DefaultMaxHeaderBytes,
	}
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("server config has invalid values in: %v", strings.Join(e.fields, ", "))
}

// Validate reports every field that cannot be used. Zero timeouts and a zero MaxHeaderBytes
// disable the corresponding limit
func (c *Config) Validate() error {
	badFields := make([]string, 0)
	if c.PoolSize < 1 {
		badFields = append(badFields, "PoolSize")
	}
	if c.QueueSize < 0 {
		badFields = append(badFields, "QueueSize")
	}
	if c.ReadTimeout < 0 {
		badFields = append(badFields, "ReadTimeout")
	}
	if c.WriteTimeout < 0 {
		badFields = append(badFields, "WriteTimeout")
	}
	if c.MaxHeaderBytes < 0 {
		badFields = append(badFields, "MaxHeaderBytes")
	}
	if len(badFields) != 0 {
		return &ErrBadConfig{fields: badFields}
	}
	return nil
}

type ConfigOption func(*Config)

// WithConfig replaces the whole config. Options applied afterwards still take effect
func WithConfig(in Config) ConfigOption {
	return func(c *Config) {
		*c = in
	}
}

func Host(v string) ConfigOption {
	return func(c *Config) {
		c.Host = v
	}
}

func PoolSize(n int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = n
	}
}

func QueueSize(n int) ConfigOption {
	return func(c *Config) {
		c.QueueSize = n
	}
}

func ReadTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

func WriteTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.WriteTimeout = d
	}
}

func MaxHeaderBytes(n int) ConfigOption {
	return func(c *Config) {
		c.MaxHeaderBytes = n
	}
}
