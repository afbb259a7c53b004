// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"net/netip"
	"sort"
	"time"

	"github.com/siemens/edgedig/report"
	"github.com/siemens/edgedig/types"
)

// renderer renders the terminal display, based on the per-domain probe state
// passed to its Render method. To keep the display bounded even with
// hundreds of candidates per domain, only confirmed addresses get their own
// lines; everything else is rolled up into a per-domain progress summary.
type renderer struct {
	Indentation int
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer object rendering to the specified
// io.Writer.
func newRenderer(w io.Writer) *renderer {
	sp := newSpinner()
	sp.Start(*spinnerInterval)
	return &renderer{
		w:       w,
		spinner: sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given per-domain probe state.
func (r *renderer) Render(sets []report.DomainProbeSet) {
	// If we don't have any probe information yet, show a proxy message.
	if len(sets) == 0 {
		fmt.Fprintln(r.w, "expanding provider ranges into candidates...")
		return
	}
	sort.Slice(sets, func(a, b int) bool { return sets[a].Domain < sets[b].Domain })
	// For neat display, determine the length of the longest confirmed
	// address over all domains, so that the latency column doesn't zig-zag
	// around.
	maxlen := 0
	for _, set := range sets {
		for _, result := range set.Results {
			if result.Outcome != types.Success {
				continue
			}
			if l := len(result.Address); l > maxlen {
				maxlen = l
			}
		}
	}
	for _, set := range sets {
		r.renderDomain(maxlen, set)
	}
}

// renderDomain renders a domain's progress summary followed by its confirmed
// edge addresses, fastest first.
func (r *renderer) renderDomain(addrwidth int, set report.DomainProbeSet) {
	var pending, confirmed, excluded int
	for _, result := range set.Results {
		switch {
		case result.Outcome.IsPending():
			pending++
		case result.Outcome == types.Success:
			confirmed++
		default:
			excluded++
		}
	}
	fmt.Fprintf(r.w, "edge candidates for %s: ", domainNameStyle.Styled(set.Domain))
	if pending > 0 {
		fmt.Fprint(r.w, probingAddressStyle.Styled(
			fmt.Sprintf("%s%d probing", r.spinner.Spinner(), pending)))
		fmt.Fprint(r.w, " ")
	}
	fmt.Fprintf(r.w, "%d confirmed %d excluded\n", confirmed, excluded)

	results := append([]types.ProbeResultValue(nil), set.Results...)
	sortConfirmed(results)
	for _, result := range results {
		if result.Outcome != types.Success {
			continue
		}
		fmt.Fprintf(r.w, "%-*s", r.Indentation, "")
		fmt.Fprint(r.w, confirmedAddressStyle.Styled(
			fmt.Sprintf(" ✔ %-*s %s ", addrwidth, result.Address, latency(result.Latency))))
		fmt.Fprintln(r.w)
	}
}

// latency pretty-prints a probe latency with sub-millisecond resolution.
func latency(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

// sortConfirmed sorts probe results in place the same way the final ranking
// does: latency ascending, ties broken by address value, so the live display
// and the final report agree.
func sortConfirmed(results []types.ProbeResultValue) {
	sort.Slice(results, func(a, b int) bool {
		if results[a].Latency != results[b].Latency {
			return results[a].Latency < results[b].Latency
		}
		ipA, errA := netip.ParseAddr(results[a].Address)
		ipB, errB := netip.ParseAddr(results[b].Address)
		if errA != nil || errB != nil {
			return results[a].Address < results[b].Address
		}
		return ipA.Compare(ipB) < 0
	})
}
