/*
Package loadtest provides an HTTP load tester. A fixed number of calls is issued against each target URL
through a bounded queue drained by a pool of concurrent workers, and every response is recorded.

There are no exports in the root package.

CLI tools part of `cmd/` include:
	- loadtest - the load tester. `loadtest run` executes a test, `loadtest history` lists stored runs
	- testServer - a fasthttp target server that can be freely modified for exercising the load tester

*/
package loadtest
