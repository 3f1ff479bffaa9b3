package server

import (
	"io/ioutil"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServeConn(t *testing.T) {
	tests := []struct {
		name    string
		request string
	}{
		{"simple get", "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"},
		{"bare newlines", "GET / HTTP/1.1\nHost: localhost\n\n"},
		{"garbage", "foo bar baz\r\n\r\n"},
		{"only blank line", "\r\n"},
		{"post with headers", "POST /api/user HTTP/1.1\r\nContent-Type: application/json\r\nX-Foo: 1\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := net.Pipe()
			h := &Handler{ReadTimeout: time.Second, WriteTimeout: time.Second, MaxHeaderBytes: DefaultMaxHeaderBytes}

			errc := make(chan error, 1)
			go func() {
				errc <- h.ServeConn(srv)
			}()

			_, err := client.Write([]byte(tt.request))
			require.NoError(t, err)

			got, err := ioutil.ReadAll(client)
			require.NoError(t, err)
			assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nOK", string(got))
			assert.NoError(t, <-errc)
		})
	}
}

func TestHandler_SilentPeer(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	h := &Handler{ReadTimeout: 50 * time.Millisecond, WriteTimeout: time.Second}

	start := time.Now()
	err := h.ServeConn(srv)
	assert.Error(t, err)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))

	var nerr net.Error
	if assert.ErrorAs(t, err, &nerr) {
		assert.True(t, nerr.Timeout())
	}
}

func TestHandler_EOFBeforeBlankLine(t *testing.T) {
	client, srv := net.Pipe()
	h := &Handler{ReadTimeout: time.Second, WriteTimeout: time.Second}

	errc := make(chan error, 1)
	go func() {
		errc <- h.ServeConn(srv)
	}()

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: foo\r\n"))
	require.NoError(t, err)
	client.Close()

	assert.ErrorIs(t, <-errc, ErrIncompleteRequest)
}

func TestHandler_HeaderTooLarge(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	h := &Handler{ReadTimeout: time.Second, WriteTimeout: time.Second, MaxHeaderBytes: 64}

	go func() {
		// this write unblocks with an error once the handler closes the connection
		client.Write([]byte("GET / HTTP/1.1\r\nX-Padding: " + strings.Repeat("a", 256) + "\r\n\r\n"))
	}()

	assert.ErrorIs(t, h.ServeConn(srv), ErrHeaderTooLarge)
}

func TestReadRequest_LongLine(t *testing.T) {
	// a line longer than the bufio buffer that ends in \r\n must not be treated as the blank line
	long := "X-Long: " + strings.Repeat("b", 5000) + "\r\n"
	err := readRequest(strings.NewReader("GET / HTTP/1.1\r\n"+long+"\r\n"), 0)
	assert.NoError(t, err)

	err = readRequest(strings.NewReader("GET / HTTP/1.1\r\n"+long), 0)
	assert.ErrorIs(t, err, ErrIncompleteRequest)

	err = readRequest(strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrIncompleteRequest)
}

func TestResponseIsCopy(t *testing.T) {
	r := Response()
	r[0] = 'X'
	assert.Equal(t, byte('H'), Response()[0])
	assert.True(t, strings.HasSuffix(string(Response()), "\r\n\r\nOK"))
}
