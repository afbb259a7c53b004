// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/siemens/edgedig/types"

	"github.com/gammazero/workerpool"
)

// Prober measures the reachability and latency of candidate edge addresses
// for a domain and then streams the [types.DomainVerdict] outcomes to a
// result/output channel. Probers use a goroutine-limited worker pool.
//
// A probe connects directly to the candidate address while presenting the
// domain as the intended virtual host, via the HTTP Host header and, unless
// probing in the plain, the TLS SNI. Probers are stateless between probes:
// every probe builds its own transport, so probes run safely in parallel.
type Prober struct {
	timeout      time.Duration // per-probe deadline, connection start to first byte.
	port         uint16        // candidate port to connect to.
	plaintext    bool          // if true, probes over plain HTTP instead of TLS.
	path         string        // request path presented to the edge.
	userAgent    string        // User-Agent presented to the edge.
	precheck     bool          // if true, an ICMP echo gates the HTTP probe.
	unprivileged bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	workers  *workerpool.WorkerPool   // probe workers for running probes concurrently.
	verdicts chan types.DomainVerdict // results/status stream channel.
	stopOnce sync.Once
}

// ProberOption can be passed to New when creating new Prober objects.
type ProberOption func(*Prober)

// New returns a new [Prober] with a maximum worker pool of the specified
// size as well as a verdict stream. The verdict channel will not only send
// the final probe verdicts, but also the initial in-flight verdicts as
// candidates get submitted for probing.
//
// The new prober defaults to HTTPS probes against port 443 with a per-probe
// timeout of 5s.
//
// The prober can be configured during creation using several options:
//   - [WithTimeout]
//   - [WithPort]
//   - [OverPlainHTTP]
//   - [WithPath]
//   - [WithUserAgent]
//   - [WithICMPPrecheck]
//   - [AsUnprivileged]
func New(size int, options ...ProberOption) (*Prober, <-chan types.DomainVerdict) {
	return newProber(size, size, options...)
}

// newProber returns a new [Prober] with a maximum worker pool of the
// specified size and a verdict stream with the specified buffer size.
func newProber(workersize int, chansize int, options ...ProberOption) (*Prober, <-chan types.DomainVerdict) {
	verdicts := make(chan types.DomainVerdict, chansize)
	prober := &Prober{
		timeout:   5 * time.Second,
		port:      443,
		path:      "/",
		userAgent: "edgedig",
		workers:   workerpool.New(workersize),
		verdicts:  verdicts,
	}
	for _, opt := range options {
		opt(prober)
	}
	return prober, verdicts
}

// WithTimeout sets the per-probe deadline. A candidate that doesn't deliver
// its first response byte within the deadline is classified as timed out; it
// is not retried automatically.
func WithTimeout(timeout time.Duration) ProberOption {
	if timeout <= 0 {
		panic(fmt.Errorf("Prober: timeout must be positive, got: %s", timeout))
	}
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithPort sets the port probes connect to on candidate addresses.
func WithPort(port uint16) ProberOption {
	return func(p *Prober) {
		p.port = port
	}
}

// OverPlainHTTP tells the Prober to probe over plain HTTP instead of TLS.
// The domain then travels in the Host header only.
func OverPlainHTTP() ProberOption {
	return func(p *Prober) {
		p.plaintext = true
	}
}

// WithPath sets the request path presented to the edge during probes.
func WithPath(path string) ProberOption {
	return func(p *Prober) {
		p.path = path
	}
}

// WithUserAgent sets the User-Agent header presented during probes.
func WithUserAgent(ua string) ProberOption {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithICMPPrecheck gates each HTTP probe behind a single ICMP echo, so that
// unreachable candidates get weeded out without paying the full HTTP
// timeout.
func WithICMPPrecheck() ProberOption {
	return func(p *Prober) {
		p.precheck = true
	}
}

// AsUnprivileged tells the Prober to carry out unprivileged pings using UDP
// instead of ICMP packets; only relevant together with [WithICMPPrecheck].
func AsUnprivileged() ProberOption {
	return func(p *Prober) {
		p.unprivileged = true
	}
}

// ProbeStream reads candidate addresses to be probed for the specified
// domain from a channel until the channel is closed. It does not return
// until the channel has been closed or the context cancelled, so callers
// typically might run ProbeStream in a separate goroutine.
func (p *Prober) ProbeStream(ctx context.Context, domain string, ch <-chan netip.Addr) {
	for {
		select {
		case addr, ok := <-ch:
			if !ok {
				return
			}
			p.Probe(ctx, domain, addr)
		case <-ctx.Done():
			return
		}
	}
}

// Probe the specified candidate address for the specified domain. The
// verdict is then sent to the channel returned together with the newly
// created [Prober]. Additionally, an initial in-flight notice for the
// candidate is also sent beforehand.
//
// If the specified context gets cancelled the pending probes won't be echoed
// to the verdict stream at all. However, spurious verdicts might still
// appear on the verdict stream due to uncontrollable order of verdict
// sending and context cancellation detection.
//
// Probes never produce a mismatch outcome; deciding whether a successful
// response really belongs to the domain's tenant is the confirmation stage's
// job.
func (p *Prober) Probe(ctx context.Context, domain string, addr netip.Addr) {
	p.probe(ctx, &types.DomainProbeValue{
		For: domain,
		ProbeResultValue: types.ProbeResultValue{
			Address: addr.String(),
			Outcome: types.Probing,
		},
	})
}

// probe does the real work of probing a candidate address. The caller is
// expected to pass in a domain probe with its outcome already set to
// Probing, avoiding an unnecessary clone.
func (p *Prober) probe(ctx context.Context, inflight *types.DomainProbeValue) {
	// Allow cancelling a blocked verdict send to avoid leaking goroutines.
	// The downside is that since the order in which select checks for
	// ctx.Done() and a blocked verdict channel is random, we cannot
	// guarantuee that either never a verdict is sent or the verdict gets
	// always sent.
	select {
	case p.verdicts <- inflight: // not yet the final one ;)
	case <-ctx.Done():
		return
	}
	p.workers.Submit(func() {
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start making noise on the network...
		select {
		case <-ctx.Done():
			return
		default:
		}
		verdict := p.dial(ctx, inflight)
		// Again, allow cancelling a blocked verdict send.
		select {
		case p.verdicts <- verdict:
		case <-ctx.Done():
		}
	})
}

// StopWait waits for all queued probes to get processed and then finally
// closes the verdict channel.
func (p *Prober) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}
