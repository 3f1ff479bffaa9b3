package http

import (
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPClient is a type alias for the actual host client we use.
// We do this instead of using an interface to avoid reflecting
type HTTPClient = fasthttp.HostClient

// Config provides the options used when performing a request
type Config struct {
	// Timeout bounds a whole request, from dialing until the response has been read
	Timeout time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	// MaxConns is the maximum number of concurrent connections the client will open to the host.
	// Requests beyond this fail immediately with fasthttp.ErrNoFreeConns, so this should be at least
	// the number of goroutines sharing the client
	MaxConns int `toml:"max_conns" json:"max_conns" mapstructure:"max_conns" yaml:"max_conns"`
	// KeepAlive reuses connections between requests. When false every request is sent on a fresh
	// connection with a Connection: close header
	KeepAlive bool `toml:"keep_alive" json:"keep_alive" mapstructure:"keep_alive" yaml:"keep_alive"`
}

// NewHTTPClient will create a http client configured specifically for requesting against the targetted host.
// This is backed by the fasthttp.HostClient
func NewHTTPClient(host string, config *Config) *HTTPClient {
	return &HTTPClient{
		Addr:                     host,
		MaxConns:                 config.MaxConns,
		ReadTimeout:              config.Timeout,
		WriteTimeout:             config.Timeout,
		NoDefaultUserAgentHeader: true,
		// a failed request is a sample, not something to retry
		MaxIdemponentCallAttempts: 1,
	}
}

// Response is the outcome of a single timed request
type Response struct {
	StatusCode int
	BodyLength int
	// Latency is measured from just before the request is written until the response status is available
	Latency time.Duration
}

// Success reports whether the response carried a 2xx status
func (r Response) Success() bool {
	return StatusCodeIsSuccess(r.StatusCode)
}

// DoGet performs a GET for path against the target using the provided client.
// If an error is returned, the Response will still have the Latency populated with the time spent
// before the failure
func DoGet(c *HTTPClient, t *Target, path string, config *Config) (Response, error) {
	var (
		freq  = fasthttp.AcquireRequest()
		fresp = fasthttp.AcquireResponse()
		ret   Response
	)
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.Header.SetMethod(fasthttp.MethodGet)
	freq.SetRequestURI(t.URL(path))
	if !config.KeepAlive {
		freq.SetConnectionClose()
	}

	start := time.Now()
	var err error
	if config.Timeout > 0 {
		err = c.DoTimeout(freq, fresp, config.Timeout)
	} else {
		err = c.Do(freq, fresp)
	}
	ret.Latency = time.Since(start)
	if err != nil {
		return ret, err
	}

	ret.StatusCode = fresp.StatusCode()
	ret.BodyLength = len(fresp.Body())
	return ret, nil
}

// StatusCodeIsSuccess returns true if the status code is in the 2xx class.
func StatusCodeIsSuccess(statusCode int) bool {
	return statusCode >= fasthttp.StatusOK && statusCode < fasthttp.StatusMultipleChoices
}
