/*
Package scan wires the edgedig pipeline stages together, per domain:
provider ranges are expanded into a bounded candidate sample, the candidates
probed concurrently under a worker limit, successful probes vetted by the
confirmation stage, and the survivors ranked by latency.

The probing and confirmation stages run concurrently, connected by channels,
but under the constraints of limited goroutines: the maximum number of
probes in flight is capped so a scan neither exhausts local sockets nor
looks like an attack to the provider.

A [Scanner] processes its domains independently; each domain's pipeline
instance owns its own results, so a fatal condition (unavailable ranges, an
empty candidate pool) is reported in that domain's [Result] and the
remaining domains proceed.
*/
package scan
