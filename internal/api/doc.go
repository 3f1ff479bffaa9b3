/*
Package api serves the management api for a registry.

	GET  /api/servers                         list the strategy names
	POST /api/servers/{serverType}/start      start a strategy on ?port= (default 8080)
	POST /api/servers/{serverType}/stop       stop a strategy
	GET  /api/servers/{serverType}/status     {"name","running","port"}
	POST /api/servers/{serverType}/test       load test, body {"port","numberOfRequests"}

Failures are returned as {"error": "..."} with the status code derived from the error kind, e.g. 404 for
an unknown strategy and 409 when starting a running one.
*/
package api
