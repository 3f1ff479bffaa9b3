/*
Package errors provides the error taxonomy shared by the servers, the registry and the load generator,
and utilities for printing nested and aggregated errors.

Every failure surfaced by serverbench is an *Error carrying a Kind. Callers should compare against the
exported sentinel values with the standard library errors.Is rather than inspecting strings.

Usage

	import errors2 "github.com/assetnote/serverbench/pkg/errors"

	...

	if err := reg.StartServer(name, port); err != nil {
		if errors.Is(err, errors2.ErrAlreadyRunning) {
			return nil
		}
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

Aggregate errors returned by shutdown paths are *multierror.Error values. PrintError walks them and
logs each nested error with an indent corresponding to its depth.
*/
package errors
