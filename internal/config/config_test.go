package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, server.DefaultPoolSize, c.Server.PoolSize)
	assert.Equal(t, loadtest.DefaultWorkers, c.LoadTest.Workers)
	assert.Equal(t, loadtest.DefaultTimeout, c.LoadTest.Timeout)
	assert.Equal(t, DefaultAPIAddr, c.API.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   []string
	}{
		{name: "pool size", modify: func(c *Config) { c.Server.PoolSize = 0 }, want: []string{"PoolSize"}},
		{name: "workers", modify: func(c *Config) { c.LoadTest.Workers = -1 }, want: []string{"Workers"}},
		{name: "addr", modify: func(c *Config) { c.API.Addr = "" }, want: []string{"Addr"}},
		{
			name: "every section",
			modify: func(c *Config) {
				c.Server.QueueSize = -1
				c.LoadTest.Timeout = 0
				c.API.ReadTimeout = -time.Second
			},
			want: []string{"QueueSize", "Timeout", "ReadTimeout"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			require.Error(t, err)
			for _, v := range tt.want {
				assert.Contains(t, err.Error(), v)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	in := `
server:
  host: 127.0.0.1
  pool_size: 4
loadtest:
  workers: 20
  timeout: 1m
  http:
    keep_alive: true
api:
  addr: 127.0.0.1:9000
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(in)))

	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", c.Server.Host)
	assert.Equal(t, 4, c.Server.PoolSize)
	assert.Equal(t, server.DefaultQueueSize, c.Server.QueueSize)
	assert.Equal(t, server.DefaultReadTimeout, c.Server.ReadTimeout)
	assert.Equal(t, 20, c.LoadTest.Workers)
	assert.Equal(t, time.Minute, c.LoadTest.Timeout)
	assert.Equal(t, loadtest.DefaultRequestTimeout, c.LoadTest.HTTP.Timeout)
	assert.True(t, c.LoadTest.HTTP.KeepAlive)
	assert.Equal(t, "127.0.0.1:9000", c.API.Addr)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SERVERBENCH_SERVER_POOL_SIZE", "3")
	t.Setenv("SERVERBENCH_LOADTEST_TARGET_HOST", "127.0.0.1")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Server.PoolSize)
	assert.Equal(t, "127.0.0.1", c.LoadTest.TargetHost)
}

func TestLoadInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("loadtest.workers", 0)

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	c := Default()
	c.Server.PoolSize = 7
	c.LoadTest.Path = "/health"

	var buf bytes.Buffer
	require.NoError(t, c.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "pool_size: 7")
	assert.NotContains(t, buf.String(), "progress")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(&buf))

	got, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
