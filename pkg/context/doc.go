/*
Package context provides utilities wrapping the native go/context package
for catching and handling multiple interrupts.

The main use-case is to attach an interrupt signal handler to the context, and to register shutdown
hooks that release listening sockets before the process exits.

	import "github.com/assetnote/serverbench/pkg/context"

	...

	reg, err := registry.New(engine, servers...)
	...
	context.OnShutdown(func() { reg.Close() })

	if err := api.ListenAndServe(context.Context(), reg, c.API); err != nil {
		log.Fatal().Err(err).Msg("failed to serve management api")
	}
*/
package context
