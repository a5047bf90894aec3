/*
Package testServer provides a fasthttp target server for manual load test runs.
It is configured to respond at very high RPS so the load tester, not the server, is the bottleneck.

The following routes are available on every port

	/                  1024 byte body
	/status/{code}     responds with the given status code
	/slow/{duration}   waits, e.g. /slow/250ms
	/size/{size}       body of size bytes
	/chunked           streamed body without a Content-Length
	/redir/{dest}      302 to /{dest}

Every response carries an X-Request-Id header.

Usage

	go run ./cmd/testServer -p 14000-14004
	go run ./cmd/loadtest run http://localhost:14000/,http://localhost:14001/status/503

The server is used for testing, and should not be used in a production environment.
*/
package main
