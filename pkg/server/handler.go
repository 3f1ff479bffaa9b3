package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// response is the only reply any strategy ever writes
var response = []byte("HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Length: 2\r\n" +
	"\r\n" +
	"OK")

var (
	// ErrIncompleteRequest is returned when the peer closes the connection before sending the blank line
	ErrIncompleteRequest = fmt.Errorf("connection closed before end of request headers")
	// ErrHeaderTooLarge is returned when the request headers exceed MaxHeaderBytes
	ErrHeaderTooLarge = fmt.Errorf("request headers too large")
)

// Response returns a copy of the fixed response written to every connection
func Response() []byte {
	return append([]byte{}, response...)
}

type connHandler interface {
	ServeConn(conn net.Conn) error
}

// Handler consumes a request up to the first empty line and writes the fixed response.
// The same Handler is safe to use from many goroutines.
type Handler struct {
	ReadTimeout    time.Duration // ReadTimeout bounds the time taken to receive the request headers
	WriteTimeout   time.Duration // WriteTimeout bounds the time taken to write the response
	MaxHeaderBytes int           // MaxHeaderBytes caps how much we will read before giving up on a request
}

func NewHandler(c *Config) *Handler {
	return &Handler{
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		MaxHeaderBytes: c.MaxHeaderBytes,
	}
}

// ServeConn handles a single exchange on conn. The connection is always closed before returning.
// Any error means the response was not (fully) written
func (h *Handler) ServeConn(conn net.Conn) error {
	defer conn.Close()

	if h.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(h.ReadTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}
	if err := readRequest(conn, h.MaxHeaderBytes); err != nil {
		return err
	}

	if h.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if _, err := conn.Write(response); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// readRequest discards lines until an empty one ("\r\n" or "\n") is read.
// If max is greater than 0, at most max bytes are consumed
func readRequest(r io.Reader, max int) error {
	if max > 0 {
		r = io.LimitReader(r, int64(max))
	}
	br := bufio.NewReader(r)

	var (
		read    int
		partial bool // partial is set while we are in the middle of a line longer than the buffer
	)
	for {
		line, err := br.ReadSlice('\n')
		read += len(line)
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			partial = true
			continue
		case errors.Is(err, io.EOF):
			if max > 0 && read >= max {
				return ErrHeaderTooLarge
			}
			return ErrIncompleteRequest
		case err != nil:
			return fmt.Errorf("failed to read request: %w", err)
		}

		if !partial && len(bytes.TrimRight(line, "\r\n")) == 0 {
			return nil
		}
		partial = false
	}
}
