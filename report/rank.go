// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"net/netip"
	"sort"
	"time"

	"github.com/siemens/edgedig/types"
)

// RankedEntry is one confirmed edge address for a domain, with its measured
// probe latency and the identity fingerprint it matched on.
type RankedEntry struct {
	Address     netip.Addr    `json:"address"`
	Latency     time.Duration `json:"latency"`
	Fingerprint string        `json:"fingerprint,omitempty"`
}

// RankedReport is the per-domain ordered list of confirmed edge addresses,
// fastest first and truncated to the configured maximum. An empty report is
// a valid outcome meaning “no edge address confirmed” and distinct from a
// scan-level error.
type RankedReport struct {
	Domain  string        `json:"domain"`
	Entries []RankedEntry `json:"entries"`
}

// Rank builds the final ranked report for a domain from its decided probe
// results: only confirmed successes enter, sorted ascending by latency with
// ties broken by address ordering so that identical latencies still rank
// deterministically across runs, truncated to topN. A topN of zero or less
// leaves the report untruncated.
func Rank(domain string, results []types.ProbeResultValue, topN int) RankedReport {
	entries := make([]RankedEntry, 0, len(results))
	for _, result := range results {
		if result.Outcome != types.Success {
			continue
		}
		addr, err := netip.ParseAddr(result.Address)
		if err != nil {
			continue
		}
		entries = append(entries, RankedEntry{
			Address:     addr,
			Latency:     result.Latency,
			Fingerprint: result.Fingerprint,
		})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Latency != entries[b].Latency {
			return entries[a].Latency < entries[b].Latency
		}
		return entries[a].Address.Compare(entries[b].Address) < 0
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return RankedReport{
		Domain:  domain,
		Entries: entries,
	}
}
