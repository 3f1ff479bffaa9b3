/*
Package registry tracks a fixed set of named server strategies and exposes the lifecycle and load test
operations used by the management api and the cli.

	r, err := registry.NewDefault(*server.NewDefaultConfig(), *loadtest.NewDefaultConfig())
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.StartServer(server.PooledName, 8081); err != nil {
		return err
	}
	res, err := r.RunLoadTest(ctx, server.PooledName, 8081, 50)

Lookups of unknown names fail with errors.ErrUnknownServerType.
*/
package registry
