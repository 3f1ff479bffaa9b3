package http

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func memoryServer(t *testing.T, statusCode int) *fasthttputil.InmemoryListener {
	ln := fasthttputil.NewInmemoryListener()
	s := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(statusCode)
			ctx.Response.AppendBodyString("foo")
		},
	}
	go s.Serve(ln)
	t.Cleanup(func() { ln.Close() })
	return ln
}

func memoryClient(ln *fasthttputil.InmemoryListener, config *Config) *HTTPClient {
	client := NewHTTPClient("localhost:80", config)
	client.Dial = func(addr string) (net.Conn, error) {
		return ln.Dial()
	}
	return client
}

func TestDoGet(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		success    bool
	}{
		{"ok", 200, true},
		{"created", 201, true},
		{"no content edge", 299, true},
		{"redirect", 302, false},
		{"not found", 404, false},
		{"server error", 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				config = &Config{Timeout: time.Second, MaxConns: 1}
				ln     = memoryServer(t, tt.statusCode)
				client = memoryClient(ln, config)
				target = NewTarget("localhost", 80)
			)

			resp, err := DoGet(client, target, "/", config)
			require.NoError(t, err)
			assert.Equal(t, tt.statusCode, resp.StatusCode)
			assert.Equal(t, tt.success, resp.Success())
			assert.Greater(t, int64(resp.Latency), int64(0))
		})
	}
}

func TestDoGetConnectionClose(t *testing.T) {
	closes := make(chan bool, 2)
	ln := fasthttputil.NewInmemoryListener()
	s := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			closes <- ctx.Request.Header.ConnectionClose()
			ctx.Response.AppendBodyString("foo")
		},
	}
	go s.Serve(ln)
	defer ln.Close()

	config := &Config{Timeout: time.Second, MaxConns: 1}
	client := memoryClient(ln, config)
	target := NewTarget("localhost", 80)

	resp, err := DoGet(client, target, "/", config)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.BodyLength)
	assert.True(t, <-closes)

	config.KeepAlive = true
	_, err = DoGet(client, target, "/", config)
	require.NoError(t, err)
	assert.False(t, <-closes)
}

func TestDoGetFailure(t *testing.T) {
	config := &Config{Timeout: 100 * time.Millisecond, MaxConns: 1}
	client := NewHTTPClient("127.0.0.1:1", config)
	client.Dial = func(addr string) (net.Conn, error) {
		return nil, fasthttp.ErrDialTimeout
	}

	resp, err := DoGet(client, NewTarget("127.0.0.1", 1), "/", config)
	assert.Error(t, err)
	assert.Equal(t, 0, resp.StatusCode)
	assert.False(t, resp.Success())
}

func TestStatusCodeIsSuccess(t *testing.T) {
	assert.False(t, StatusCodeIsSuccess(0))
	assert.False(t, StatusCodeIsSuccess(199))
	assert.True(t, StatusCodeIsSuccess(200))
	assert.True(t, StatusCodeIsSuccess(204))
	assert.False(t, StatusCodeIsSuccess(300))
}
