/*
Package loadtest generates concurrent HTTP load against a running server and aggregates latency and
throughput statistics.

Usage

An Engine is created once with its options and can then run any number of load tests:

	e := loadtest.NewEngine(
		loadtest.TargetHost("localhost"),
		loadtest.Workers(10),
		loadtest.Timeout(30*time.Second),
	)
	res, err := e.Run(ctx, "Thread-Pool", 8081, 50)
	if err != nil {
		// errors.ErrLoadTestTimeout if the run did not complete in time
	}
	fmt.Println(res.String())

Every request is a GET sent on a fresh connection unless KeepAlive is set. Requests that fail before a
response is received are counted in Result.Errors and excluded from the latency statistics. Only 2xx
responses count towards Result.SuccessRate.
*/
package loadtest
