// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package confirm

import (
	"context"
	"sync"

	"github.com/siemens/edgedig/types"
)

// Confirmer confirms a stream of probe verdicts: a successful probe only
// stays successful if its captured response signal is consistent with the
// probed domain, as decided by the configured [Matcher]. Successes without a
// positive match are downgraded to mismatch and thereby excluded from
// ranking. Anything else passes through untouched.
type Confirmer struct {
	matcher Matcher
	news    chan types.DomainVerdict

	mu     sync.Mutex
	counts map[types.Outcome]int
}

// ConfirmerOption can be passed to New when creating new Confirmer objects.
type ConfirmerOption func(*Confirmer)

// New returns a new Confirmer together with its output channel of confirmed
// verdicts, buffering up to size verdicts. The confirmer defaults to the
// [DefaultMatcher] heuristic.
//
// The confirmer can be configured during creation using:
//   - [WithMatcher]
func New(size int, options ...ConfirmerOption) (*Confirmer, <-chan types.DomainVerdict) {
	news := make(chan types.DomainVerdict, size)
	confirmer := &Confirmer{
		matcher: DefaultMatcher,
		news:    news,
		counts:  map[types.Outcome]int{},
	}
	for _, opt := range options {
		opt(confirmer)
	}
	return confirmer, news
}

// WithMatcher sets the identity matching strategy deciding whether a
// response signal belongs to the probed domain's tenant.
func WithMatcher(matcher Matcher) ConfirmerOption {
	return func(c *Confirmer) {
		c.matcher = matcher
	}
}

// ConfirmStream confirms the incoming stream of probe verdicts until the
// input channel is closed, then closes the output channel returned by New,
// and finally returns. In-flight (pending) verdicts pass through unchanged
// so that interactive consumers can keep their displays current.
//
// In case the specified context is cancelled, ConfirmStream stops pulling
// off verdicts and returns as soon as possible, closing the output channel.
func (c *Confirmer) ConfirmStream(ctx context.Context, in <-chan types.DomainVerdict) {
slurpVerdicts:
	for {
		select {
		case verdict, ok := <-in:
			if !ok {
				break slurpVerdicts
			}
			if verdict.Out().IsPending() {
				// Pass on in-flight verdicts directly to the news channel and
				// wait for their final counterparts to come in soon.
				select {
				case c.news <- verdict:
				case <-ctx.Done():
					break slurpVerdicts
				}
				continue
			}
			confirmed := c.Confirm(verdict)
			select {
			case c.news <- confirmed:
			case <-ctx.Done():
				break slurpVerdicts
			}
		case <-ctx.Done():
			break slurpVerdicts
		}
	}
	close(c.news)
}

// Confirm decides a single final probe verdict: successes get their
// matched-identity fingerprint attached on a positive match and are
// downgraded to mismatch otherwise. Excluded verdicts pass through
// unchanged. Every decided verdict is tallied in the diagnostic counts.
func (c *Confirmer) Confirm(verdict types.DomainVerdict) types.DomainVerdict {
	if verdict.Out() == types.Success {
		if fp, ok := c.matcher(verdict.Domain(), verdict.Sig()); ok {
			verdict = verdict.WithFingerprint(fp).(types.DomainVerdict)
		} else {
			verdict = verdict.WithOutcome(types.Mismatch, nil).(types.DomainVerdict)
		}
	}
	c.mu.Lock()
	c.counts[verdict.Out()]++
	c.mu.Unlock()
	return verdict
}

// Counts returns the diagnostic tally of decided outcomes so far, including
// the mismatches excluded from ranking.
func (c *Confirmer) Counts() map[types.Outcome]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[types.Outcome]int, len(c.counts))
	for outcome, count := range c.counts {
		counts[outcome] = count
	}
	return counts
}
