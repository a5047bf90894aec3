/*
Package http provides a small GET client built on fasthttp request and response primitives, used to
send the requests of a load test.

A single Client is shared by every worker of a run. Connections are kept alive and parked per scheme
and host between requests, so at most one socket per in-flight request is open to a host. The number of
parked sockets can be bounded with Config.MaxIdleConnsPerHost.

Get performs exactly one GET for the provided URL and reports the status code, the Content-Length
header and the time spent. The response header is inspected before the body is read, so a chunked or
close delimited response reports a ContentLength of 0 while BodyLength holds the bytes received.
Transport failures are returned as errors and are never retried, with one exception: a parked
connection that turns out to be closed by the server before it received anything is replaced.

Every request is bound to a context. Cancelling it closes the connection in use, so a target that
accepts a connection and never answers cannot hold up the caller.

Request and Response objects from fasthttp are acquired from and released to their sync.Pools inside
Get, so the returned Response is a plain value that is safe to keep.
*/
package http
