/*
Package context provides utilities wrapping the native go/context package
for catching and handling interrupts during a load test.

The interrupt policy is fail fast. The first SIGINT or SIGTERM cancels the shared context, which makes the
dispatcher abandon the run. The second signal terminates the process immediately.

	import "github.com/pt3002/CN-Project/pkg/context"

	...

	run, err := engine.Run(context.Context(), urls)
	if errors.Is(err, loadtest.ErrInterrupted) {
		os.Exit(context.ExitInterrupted)
	}
*/
package context
