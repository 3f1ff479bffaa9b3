/*
Package http provides a thin wrapper around the fasthttp HostClient for timing individual requests.

A Target describes the host and port being measured, and DoGet performs one GET against it returning
the status code and the latency observed from just before the request is written until the response
status is available.

By default every request is sent with a Connection: close header so that each sample includes the cost
of establishing a connection, which is what the benchmarked servers are built to exercise.
*/
package http
