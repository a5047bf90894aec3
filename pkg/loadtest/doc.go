/*
Package loadtest provides the closed-loop request engine used to load test one or more HTTP targets.

A run sends every URL exactly Calls times using Concurrent workers. Each worker issues its next request
as soon as the previous one completes, so throughput is bounded by the targets and the worker count
rather than by an arrival rate.

The concurrency model is a single bounded queue between one dispatcher and the pool

	                        ┌─► worker 0 ──┐
	dispatcher ──► queue ───┼─► worker 1 ──┼──► sink
	                        └─► worker N ──┘

 - dispatcher - pushes each URL Calls times, blocking while the queue is full
 - queue      - holds at most Concurrent pending units. This is the only backpressure in the system
 - worker     - pops a unit, probes it and appends the record before popping the next
 - sink       - mutex guarded, append only collection of records

Completion is explicit. Once dispatch finishes the queue is closed, workers exit when it is drained and
the run waits for every worker before computing the summary. The sink therefore always holds exactly
len(urls) * Calls records when Run returns without error.

Transport failures never leave a worker. They are converted into a Record with Status set to StatusFailed
so a single unreachable target can share a run with healthy ones.

Cancelling the context passed to Run aborts the run. The dispatcher stops, workers finish their current
request and Run returns ErrInterrupted without any records.
*/
package loadtest
