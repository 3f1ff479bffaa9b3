package server

import (
	"context"
)

// SerialServer handles every connection on the accepting goroutine. A connection is fully answered
// before the next one is accepted, so throughput is bounded by the latency of a single exchange
type SerialServer struct {
	*listener
}

var _ Server = &SerialServer{}

func NewSerialServer(opts ...ConfigOption) (*SerialServer, error) {
	l, err := newListener(SerialName, opts...)
	if err != nil {
		return nil, err
	}
	return &SerialServer{listener: l}, nil
}

func (s *SerialServer) Serve(ctx context.Context) error {
	return s.serve(ctx, s.handle)
}

func (s *SerialServer) Start(ctx context.Context, port int) error {
	if err := s.Listen(port); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close stops the server. A SerialServer holds nothing beyond its listener
func (s *SerialServer) Close() error {
	return s.markClosed()
}
