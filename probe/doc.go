/*
Package probe implements the timed topology probe for candidate edge
addresses.

[Prober] objects support concurrent probes with maximum goroutine limits.
Individual probe verdicts are streamed as they are decided, to a channel
returned when creating a new Prober object. A verdict consists of (at least)
the candidate address, the measured latency, and the [types.Outcome], notably
[types.Success], [types.Timeout] and [types.ConnectionError], but also
the interim [types.Probing].

	              +---+
	netip.Addr -->| P +--> ch DomainVerdict
	              +---+

⚠ Please note that a [Prober] initially emits any newly submitted candidate
before it undergoes probing (with its outcome set to “probing”), as well as
later the final verdict. The rationale is that especially interactive clients
can more easily manage their display so that all enqueued probes are early
visible.

If needed, a Prober can read the candidates it has to probe from an input
channel until this input channel is closed.

	                 +---+
	ch netip.Addr -->| P +--> ch DomainVerdict
	                 +---+

Probers can be operated in a pipeline in that they read the candidates from a
generator's channel and then stream the verdicts to the confirmation stage.

The probe itself is an HTTP(S) request sent directly to the candidate address
while the domain under test travels as the virtual host, in the Host header
and (for TLS probes) the SNI. The wall clock runs from connection start to
the first response byte. Successful probes carry the response's identity
signal (status, headers, leading body bytes) for the confirmation stage;
probes never classify as mismatch themselves.

# Acknowledgements

Under its hood, [Prober] leverages [gammazero/workerpool] as the limiting
goroutine pool and [go-ping/ping] for the optional ICMP reachability
precheck.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package probe
