// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package candidates

import (
	"context"
	"net/netip"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("candidate generator", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("rejects an empty range list", func() {
		Expect(New(nil).Generate()).Error().To(MatchError(ErrNoCandidates))
	})

	It("yields exactly the single address of a host range", func() {
		addrs := Successful(New([]netip.Prefix{
			netip.MustParsePrefix("198.51.100.1/32"),
		}).Generate())
		Expect(addrs).To(ConsistOf(netip.MustParseAddr("198.51.100.1")))
	})

	It("enumerates small ranges exhaustively, deduplicating overlaps", func() {
		addrs := Successful(New([]netip.Prefix{
			netip.MustParsePrefix("198.51.100.0/30"),
			netip.MustParsePrefix("198.51.100.0/31"), // completely contained in the /30
		}).Generate())
		Expect(addrs).To(HaveLen(4))
		seen := map[netip.Addr]struct{}{}
		for _, addr := range addrs {
			Expect(seen).NotTo(HaveKey(addr), "duplicate candidate %s", addr)
			seen[addr] = struct{}{}
			Expect(netip.MustParsePrefix("198.51.100.0/30").Contains(addr)).To(BeTrue())
		}
	})

	It("samples reproducibly from a large range", func() {
		prefix := netip.MustParsePrefix("104.16.0.0/13")
		first := Successful(New([]netip.Prefix{prefix},
			WithLimit(32), WithSeed(42)).Generate())
		second := Successful(New([]netip.Prefix{prefix},
			WithLimit(32), WithSeed(42)).Generate())
		Expect(first).To(HaveLen(32))
		Expect(second).To(Equal(first), "same seed must give the same sample")
		for _, addr := range first {
			Expect(prefix.Contains(addr)).To(BeTrue(), "stray candidate %s", addr)
		}
	})

	It("differs between seeds", func() {
		prefix := netip.MustParsePrefix("104.16.0.0/13")
		one := Successful(New([]netip.Prefix{prefix}, WithLimit(32), WithSeed(1)).Generate())
		two := Successful(New([]netip.Prefix{prefix}, WithLimit(32), WithSeed(2)).Generate())
		Expect(one).NotTo(Equal(two))
	})

	It("stratifies samples across all ranges", func() {
		small := netip.MustParsePrefix("192.0.2.0/24")
		large := netip.MustParsePrefix("104.16.0.0/16")
		addrs := Successful(New([]netip.Prefix{large, small},
			WithLimit(50), WithSeed(7)).Generate())
		var insmall, inlarge int
		for _, addr := range addrs {
			switch {
			case small.Contains(addr):
				insmall++
			case large.Contains(addr):
				inlarge++
			}
		}
		Expect(insmall).To(BeNumerically(">=", 1),
			"small ranges must still be represented")
		Expect(inlarge).To(BeNumerically(">", insmall),
			"larger ranges must contribute more candidates")
	})

	It("streams candidates and honors cancellation", NodeTimeout(10*time.Second), func(specctx context.Context) {
		ctx, cancel := context.WithCancel(specctx)
		defer cancel()
		ch := Successful(New([]netip.Prefix{
			netip.MustParsePrefix("198.51.100.0/24"),
		}).Stream(ctx))
		var addr netip.Addr
		Eventually(ch).Should(Receive(&addr))
		Expect(addr.Is4()).To(BeTrue())
		cancel()
		Eventually(ch).WithTimeout(2 * time.Second).Should(BeClosed())
	})

})
