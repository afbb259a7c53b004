/*
Package report aggregates decided probe verdicts into the per-domain ranked
result.

[Rank] is the pure aggregation step: confirmed successes only, ascending by
latency, ties broken by address so runs with identical latencies still come
out in the same order, truncated to the configured top N. [Board] is the
concurrency-safe collection point consuming the verdict stream while probes
are still in flight, which interactive displays render from. [WriteCSV]
exports ranked reports for further processing.
*/
package report
