// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"sync"

	"github.com/siemens/edgedig/types"
)

// DomainProbeSet is a domain together with the probe results of all its
// candidate addresses so far.
type DomainProbeSet struct {
	Domain  string                   `json:"domain"`
	Results []types.ProbeResultValue `json:"results"`
}

// Board maps domains to their corresponding candidate probe results. A
// typical use case for a Board is to consume the verdict stream (channel)
// sending updates as candidates are generated, probed, and finally confirmed
// or excluded, with an interactive display rendering the Board contents
// while the pipeline is still busy.
type Board struct {
	m  map[string][]types.ProbeResultValue
	mu sync.Mutex
}

// NewBoard returns a new and properly initialized Board.
func NewBoard() *Board {
	return &Board{
		m: map[string][]types.ProbeResultValue{},
	}
}

// Get returns all domains with their probe results from the board.
func (b *Board) Get() []DomainProbeSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	sets := make([]DomainProbeSet, 0, len(b.m))
	for domain, results := range b.m {
		sets = append(sets, DomainProbeSet{
			Domain:  domain,
			Results: results,
		})
	}
	return sets
}

// Results returns (a copy of) the probe results gathered for the specified
// domain.
func (b *Board) Results(domain string) []types.ProbeResultValue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.ProbeResultValue(nil), b.m[domain]...)
}

// Update the board with a domain verdict, augmenting candidates in case they
// are yet unknown. Known candidates are updated only while their recorded
// outcome is still pending; a candidate that has reached its terminal
// outcome never transitions back.
func (b *Board) Update(verdict types.DomainVerdict) {
	if verdict == nil {
		return
	}
	domain := verdict.Domain()
	if domain == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if results, ok := b.m[domain]; ok {
		addr := verdict.Addr()
		if addr == "" {
			return
		}
		for idx := range results {
			if results[idx].Address == addr {
				if results[idx].Outcome.IsPending() && verdict.Out() != results[idx].Outcome {
					results[idx] = verdict.PR()
				}
				return
			}
		}
		b.m[domain] = append(results, verdict.PR())
		return
	}
	if verdict.Addr() == "" {
		b.m[domain] = []types.ProbeResultValue{}
	} else {
		b.m[domain] = []types.ProbeResultValue{verdict.PR()}
	}
}

// Track domain verdict updates received from the specified channel until the
// channel is closed or the context done. Track only returns after processing
// all updates or when the context is done.
func (b *Board) Track(ctx context.Context, news <-chan types.DomainVerdict) error {
	for {
		select {
		case verdict, ok := <-news:
			if !ok {
				return nil
			}
			b.Update(verdict)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
