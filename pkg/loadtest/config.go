package loadtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/assetnote/serverbench/pkg/http"
)

const (
	DefaultWorkers        = 10
	DefaultTimeout        = 30 * time.Second
	DefaultRequestTimeout = 5 * time.Second
	DefaultTargetHost     = "localhost"
	DefaultPath           = "/"
)

type ProgressBar interface {
	Incr(n int64)
	AddTotal(n int64)
}

type NullProgressBar struct {
	total int64
	hits  int64
}

func (n *NullProgressBar) Incr(v int64) {
	atomic.AddInt64(&n.hits, v)
}

func (n *NullProgressBar) AddTotal(v int64) {
	atomic.AddInt64(&n.total, v)
}

var _ ProgressBar = &NullProgressBar{}

type Config struct {
	// TargetHost is the host the requests are sent to. The port is provided per run
	TargetHost string `toml:"target_host" json:"target_host" mapstructure:"target_host" yaml:"target_host"`
	// Path is the request path used for every request
	Path string `toml:"path" json:"path" mapstructure:"path" yaml:"path"`
	// Workers bounds how many requests are in flight at once
	Workers int `toml:"workers" json:"workers" mapstructure:"workers" yaml:"workers"`
	// Timeout bounds the whole run. Exceeding it fails the run and discards the samples
	Timeout time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	// HTTP configures each individual request. HTTP.MaxConns is raised to Workers if lower
	HTTP http.Config `toml:"http" json:"http" mapstructure:"http" yaml:"http"`

	ProgressBar ProgressBar `toml:"-" json:"-" mapstructure:"-" yaml:"-"`
}

func NewDefaultConfig() *Config {
	return &Config{
		TargetHost: DefaultTargetHost,
		Path:       DefaultPath,
		Workers:    DefaultWorkers,
		Timeout:    DefaultTimeout,
		HTTP: http.Config{
			Timeout: DefaultRequestTimeout,
		},
		ProgressBar: &NullProgressBar{},
	}
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("load test config has invalid values in: %v", strings.Join(e.fields, ", "))
}

func (c *Config) Validate() error {
	badFields := make([]string, 0)
	if c.Workers < 1 {
		badFields = append(badFields, "Workers")
	}
	if c.Timeout <= 0 {
		badFields = append(badFields, "Timeout")
	}
	if c.HTTP.Timeout < 0 {
		badFields = append(badFields, "HTTP.Timeout")
	}
	if c.TargetHost == "" {
		badFields = append(badFields, "TargetHost")
	}
	if !strings.HasPrefix(c.Path, "/") {
		badFields = append(badFields, "Path")
	}
	if len(badFields) != 0 {
		return &ErrBadConfig{fields: badFields}
	}
	return nil
}

type ConfigOption func(*Config)

// WithConfig replaces the whole config. The progress bar is kept if in does not provide one
func WithConfig(in Config) ConfigOption {
	return func(c *Config) {
		pb := c.ProgressBar
		*c = in
		if c.ProgressBar == nil {
			c.ProgressBar = pb
		}
	}
}

func Workers(n int) ConfigOption {
	return func(c *Config) {
		c.Workers = n
	}
}

func Timeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

func RequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.HTTP.Timeout = d
	}
}

func TargetHost(v string) ConfigOption {
	return func(c *Config) {
		c.TargetHost = v
	}
}

func Path(v string) ConfigOption {
	return func(c *Config) {
		c.Path = v
	}
}

func KeepAlive(v bool) ConfigOption {
	return func(c *Config) {
		c.HTTP.KeepAlive = v
	}
}

func AddProgressBar(p ProgressBar) ConfigOption {
	return func(c *Config) {
		c.ProgressBar = p
	}
}
