/*
Package server provides the two connection accepting strategies benchmarked by serverbench.

Both strategies speak the same minimal protocol. Every line up to the first empty line is treated as
the request and discarded, after which the fixed response is written and the connection closed:

	HTTP/1.1 200 OK
	Content-Type: text/plain
	Content-Length: 2

	OK

The SerialServer handles each connection inline on the accepting goroutine. The PooledServer submits
each accepted connection to a github.com/alitto/pond worker pool and immediately resumes accepting.

Each connection is given a read and write deadline, and the amount of header data read is capped, so a
silent or misbehaving peer can only hold a worker for a bounded time.

Usage

	s, err := server.NewPooledServer(server.PoolSize(32))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Listen(8081); err != nil {
		return err
	}
	go s.Serve(ctx)
	...
	s.Stop()
*/
package server
