// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"time"

	"github.com/siemens/edgedig/candidates"
	"github.com/siemens/edgedig/confirm"
	"github.com/siemens/edgedig/probe"
	"github.com/siemens/edgedig/ranges"
	"github.com/siemens/edgedig/report"
	"github.com/siemens/edgedig/resolver"
	"github.com/siemens/edgedig/types"

	"github.com/miekg/dns"
	"github.com/projectdiscovery/gologger"
	"github.com/rs/xid"
)

// Scanner runs the full per-domain pipeline: provider ranges in, ranked
// report out.
//
//	ranges ──> candidates ──> prober ──> confirmer ──> ranked report
//
// Each domain gets its own pipeline instance owning its own probe results,
// so domains are scanned independently: one domain's fatal condition (no
// ranges, no candidates) never affects the others.
type Scanner struct {
	source      *ranges.Source
	concurrency int
	limit       int
	seed        int64
	topN        int
	deadline    time.Duration
	matcher     confirm.Matcher
	proberOpts  []probe.ProberOption
	resolverAt  string
	observer    func(types.DomainVerdict)
}

// Result is the outcome of scanning a single domain. Report may be empty
// without Err being set: “no confirmed edge address” is an answer, not an
// error. Err is only set for pipeline-fatal conditions, namely
// [ranges.ErrRangeUnavailable] and [candidates.ErrNoCandidates].
type Result struct {
	Domain   string                `json:"domain"`
	RunID    string                `json:"run"` // correlates log lines of this run
	Report   report.RankedReport   `json:"report"`
	Counts   map[types.Outcome]int `json:"counts"`   // diagnostic outcome tally
	Degraded bool                  `json:"degraded"` // ranges came from the static fallback
	Baseline *resolver.Baseline    `json:"baseline,omitempty"`
	Err      error                 `json:"-"`
}

// Option can be passed to New when creating new Scanner objects.
type Option func(*Scanner)

// New returns a new [Scanner] drawing its candidate ranges from the
// specified source. The scanner defaults to 16 concurrent probes, the
// candidate generator's default limit and seed, and a top-10 report.
//
// The scanner can be configured during creation using several options:
//   - [WithConcurrency]
//   - [WithLimit]
//   - [WithSeed]
//   - [WithTopN]
//   - [WithDeadline]
//   - [WithMatcher]
//   - [WithProberOptions]
//   - [WithBaseline]
//   - [WithObserver]
func New(source *ranges.Source, options ...Option) *Scanner {
	s := &Scanner{
		source:      source,
		concurrency: 16,
		limit:       candidates.DefaultLimit,
		seed:        1,
		topN:        10,
		matcher:     confirm.DefaultMatcher,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithConcurrency bounds the number of probes in flight at any time.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLimit bounds the number of candidate addresses generated per domain.
func WithLimit(limit int) Option {
	return func(s *Scanner) {
		s.limit = limit
	}
}

// WithSeed sets the candidate sampling seed; a fixed seed reproduces the
// same candidate sample across runs.
func WithSeed(seed int64) Option {
	return func(s *Scanner) {
		s.seed = seed
	}
}

// WithTopN truncates each domain's ranked report to the n fastest confirmed
// addresses.
func WithTopN(n int) Option {
	return func(s *Scanner) {
		s.topN = n
	}
}

// WithDeadline sets a per-domain run deadline. Once exceeded, probes still
// pending are aborted; in-flight probes resolve to their natural timeout
// classification rather than being torn down.
func WithDeadline(d time.Duration) Option {
	return func(s *Scanner) {
		s.deadline = d
	}
}

// WithMatcher sets the tenant-identity matching strategy used by the
// confirmation stage.
func WithMatcher(matcher confirm.Matcher) Option {
	return func(s *Scanner) {
		s.matcher = matcher
	}
}

// WithProberOptions passes options through to the per-domain [probe.Prober],
// such as the probe timeout, port, or the ICMP precheck.
func WithProberOptions(options ...probe.ProberOption) Option {
	return func(s *Scanner) {
		s.proberOpts = options
	}
}

// WithBaseline additionally resolves each domain through the DNS resolver at
// the specified address (host:port) into its [resolver.Baseline], flagging
// domains whose published resolution looks blocked.
func WithBaseline(resolverAddr string) Option {
	return func(s *Scanner) {
		s.resolverAt = resolverAddr
	}
}

// WithObserver registers a callback receiving every verdict as it travels
// through the pipeline, including the in-flight ones; interactive displays
// hook in here. The callback must not block for long, or it stalls the
// pipeline.
func WithObserver(fn func(types.DomainVerdict)) Option {
	return func(s *Scanner) {
		s.observer = fn
	}
}

// Scan runs the pipeline for each of the specified domains in turn and
// returns one [Result] per domain, in input order. Fatal conditions are
// recorded in the affected domain's result and do not stop the remaining
// domains.
func (s *Scanner) Scan(ctx context.Context, domains []string) []Result {
	results := make([]Result, 0, len(domains))
	for _, domain := range domains {
		results = append(results, s.ScanDomain(ctx, domain))
	}
	return results
}

// ScanDomain runs the pipeline for a single domain: fetch ranges, generate
// candidates, probe them concurrently, confirm the successes, and rank
// what's left.
func (s *Scanner) ScanDomain(ctx context.Context, domain string) Result {
	result := Result{
		Domain: domain,
		RunID:  xid.New().String(),
	}
	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}
	gologger.Info().Msgf("[%s] scanning %s", result.RunID, domain)

	if s.resolverAt != "" {
		s.baseline(ctx, &result)
	}

	prefixes, degraded, err := s.source.Ranges(ctx)
	if err != nil {
		gologger.Error().Msgf("[%s] %s", result.RunID, err)
		result.Err = err
		return result
	}
	result.Degraded = degraded

	stream, err := candidates.New(prefixes,
		candidates.WithLimit(s.limit),
		candidates.WithSeed(s.seed)).Stream(ctx)
	if err != nil {
		gologger.Error().Msgf("[%s] %s", result.RunID, err)
		result.Err = err
		return result
	}

	// Now lets put the required processing elements and their plumbing in
	// place.
	//
	//   - Prober producing verdicts from a stream of candidate addresses.
	//   - Confirmer consuming the verdicts, vetting the tenant identity.
	//   - Board consuming the confirmed verdicts.
	//
	// Ranking is done on the information collected by the Board.
	prober, verdicts := probe.New(s.concurrency, s.proberOpts...)
	confirmer, news := confirm.New(s.concurrency, confirm.WithMatcher(s.matcher))
	go confirmer.ConfirmStream(ctx, verdicts)
	go func() {
		prober.ProbeStream(ctx, domain, stream)
		prober.StopWait()
	}()

	board := report.NewBoard()
	for verdict := range news {
		board.Update(verdict)
		if s.observer != nil {
			s.observer(verdict)
		}
	}

	result.Report = report.Rank(domain, board.Results(domain), s.topN)
	result.Counts = confirmer.Counts()
	if len(result.Report.Entries) == 0 {
		gologger.Info().Msgf("[%s] no confirmed edge address for %s", result.RunID, domain)
	} else {
		gologger.Info().Msgf("[%s] %d confirmed edge address(es) for %s, fastest %s",
			result.RunID, len(result.Report.Entries), domain,
			result.Report.Entries[0].Address)
	}
	return result
}

// baseline resolves the domain's currently-published addresses and attaches
// them to the result. Baseline failures are informational only: the probing
// pipeline is the point of this exercise, the baseline just context.
func (s *Scanner) baseline(ctx context.Context, result *Result) {
	dnsclnt := dns.Client{}
	pool, err := resolver.New(ctx, 1, &dnsclnt, s.resolverAt)
	if err != nil {
		gologger.Warning().Msgf("[%s] no baseline, resolver unavailable: %s", result.RunID, err)
		return
	}
	defer pool.StopWait()
	done := make(chan struct{})
	pool.Baseline(ctx, result.Domain, func(bl resolver.Baseline, err error) {
		defer close(done)
		if err != nil {
			gologger.Warning().Msgf("[%s] no baseline for %s: %s", result.RunID, result.Domain, err)
			return
		}
		result.Baseline = &bl
		if bl.Blocked {
			gologger.Warning().Msgf("[%s] %s resolves to special-purpose addresses only, looks blocked",
				result.RunID, result.Domain)
		}
	})
	<-done
}
