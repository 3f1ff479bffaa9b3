package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "SERVERBENCH"
	FileName  = ".serverbench"

	DefaultAPIAddr          = ":9090"
	DefaultAPIReadTimeout   = 10 * time.Second
	DefaultAPIWriteTimeout  = 10 * time.Second
	DefaultAPIAllowedOrigin = "http://localhost:4200"
)

// API configures the management api server
type API struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// AllowedOrigin is sent as Access-Control-Allow-Origin so a browser dashboard can call the api.
	// Empty disables the header
	AllowedOrigin string `mapstructure:"allowed_origin" yaml:"allowed_origin"`
}

// Config is the complete configuration of the serverbench binary
type Config struct {
	Server   server.Config   `mapstructure:"server" yaml:"server"`
	LoadTest loadtest.Config `mapstructure:"loadtest" yaml:"loadtest"`
	API      API             `mapstructure:"api" yaml:"api"`
}

func Default() *Config {
	c := &Config{
		Server:   *server.NewDefaultConfig(),
		LoadTest: *loadtest.NewDefaultConfig(),
		API: API{
			Addr:          DefaultAPIAddr,
			ReadTimeout:   DefaultAPIReadTimeout,
			WriteTimeout:  DefaultAPIWriteTimeout,
			AllowedOrigin: DefaultAPIAllowedOrigin,
		},
	}
	c.LoadTest.ProgressBar = nil
	return c
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("api config has invalid values in: %v", strings.Join(e.fields, ", "))
}

// Validate checks every section and returns all the failures found
func (c *Config) Validate() error {
	var result error
	if err := c.Server.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.LoadTest.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	badFields := make([]string, 0)
	if c.API.Addr == "" {
		badFields = append(badFields, "Addr")
	}
	if c.API.ReadTimeout < 0 {
		badFields = append(badFields, "ReadTimeout")
	}
	if c.API.WriteTimeout < 0 {
		badFields = append(badFields, "WriteTimeout")
	}
	if len(badFields) != 0 {
		result = multierror.Append(result, &ErrBadConfig{fields: badFields})
	}
	return result
}

// SetDefaults registers every key with its default value. Keys must be known to viper for environment
// variables to be picked up by Unmarshal
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.pool_size", d.Server.PoolSize)
	v.SetDefault("server.queue_size", d.Server.QueueSize)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_header_bytes", d.Server.MaxHeaderBytes)

	v.SetDefault("loadtest.target_host", d.LoadTest.TargetHost)
	v.SetDefault("loadtest.path", d.LoadTest.Path)
	v.SetDefault("loadtest.workers", d.LoadTest.Workers)
	v.SetDefault("loadtest.timeout", d.LoadTest.Timeout)
	v.SetDefault("loadtest.http.timeout", d.LoadTest.HTTP.Timeout)
	v.SetDefault("loadtest.http.max_conns", d.LoadTest.HTTP.MaxConns)
	v.SetDefault("loadtest.http.keep_alive", d.LoadTest.HTTP.KeepAlive)

	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout)
	v.SetDefault("api.write_timeout", d.API.WriteTimeout)
	v.SetDefault("api.allowed_origin", d.API.AllowedOrigin)
}

// BindEnv makes every key overridable with a SERVERBENCH_ prefixed variable,
// e.g. SERVERBENCH_SERVER_POOL_SIZE
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v over the defaults and validates the result
func Load(v *viper.Viper) (*Config, error) {
	c := Default()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// WriteYAML writes the config in the same layout accepted by Load
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
