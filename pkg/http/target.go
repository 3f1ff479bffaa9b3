package http

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

var (
	bHTTP = []byte("http://")
)

// Target is the host a load test is sent to. The request is sent to the value returned by Host()
type Target struct {
	Hostname string // Hostname is the bare hostname without the port.
	Port     int    // Port will be the port used to reach the server.

	b []byte
}

// NewTarget returns a target for hostname:port
func NewTarget(hostname string, port int) *Target {
	return &Target{Hostname: hostname, Port: port}
}

// AppendHost will append the host to make the request including the port. e.g. localhost:8080
func (t *Target) AppendHost(buf []byte) []byte {
	buf = append(buf, t.Hostname...)
	buf = append(buf, ":"...)
	buf = append(buf, strconv.Itoa(t.Port)...)
	return buf
}

// Host will return the Host:Port of the target
func (t *Target) Host() string {
	w := bytebufferpool.Get()
	ret := string(t.AppendHost(w.B))
	bytebufferpool.Put(w)
	return ret
}

// URL returns the absolute url for path on the target. path should start with a /
func (t *Target) URL(path string) string {
	w := bytebufferpool.Get()
	w.B = append(w.B, bHTTP...)
	w.B = t.AppendHost(w.B)
	w.B = append(w.B, path...)
	ret := string(w.B)
	bytebufferpool.Put(w)
	return ret
}

// String will return a string representation of the target
func (t *Target) String() string {
	return string(t.Bytes())
}

// Bytes will return the same output as String. This is cached in t.b
// If the target is changed after Bytes() is called, the changes will not be
// reflected
func (t *Target) Bytes() []byte {
	if len(t.b) == 0 {
		t.b = append(t.b, bHTTP...)
		t.b = t.AppendHost(t.b)
	}
	return t.b
}
