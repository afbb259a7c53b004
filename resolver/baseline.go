// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"net/netip"
)

// Baseline is a domain's currently-published resolution, as seen through the
// configured resolver. A domain counts as blocked when resolution succeeds
// but yields only private or otherwise special-purpose addresses, which is
// the classic signature of resolver-level censorship or a poisoned answer.
type Baseline struct {
	Domain    string       `json:"domain"`
	Addresses []netip.Addr `json:"addresses"`
	Blocked   bool         `json:"blocked"`
}

// Baseline resolves the specified domain and classifies the answer, passing
// the result or a resolution error to the specified callback function fn.
// The edge probing pipeline runs regardless of the baseline; a blocked
// baseline is exactly the situation in which a confirmed edge address is
// worth the most.
func (p *Pool) Baseline(ctx context.Context, domain string, fn func(Baseline, error)) {
	p.ResolveName(ctx, domain, func(addrs []netip.Addr, err error) {
		if err != nil {
			fn(Baseline{Domain: domain}, err)
			return
		}
		baseline := Baseline{
			Domain:    domain,
			Addresses: addrs,
		}
		usable := 0
		for _, addr := range addrs {
			if !special(addr) {
				usable++
			}
		}
		baseline.Blocked = len(addrs) > 0 && usable == 0
		fn(baseline, nil)
	})
}

// special reports whether an address cannot possibly be a public edge
// address.
func special(addr netip.Addr) bool {
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast()
}
