// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"net/netip"
	"time"

	"github.com/siemens/edgedig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func probed(addr string, outcome types.Outcome, latency time.Duration) types.ProbeResultValue {
	return types.ProbeResultValue{
		Address:     addr,
		Outcome:     outcome,
		Latency:     latency,
		Fingerprint: "Server=unit-test-edge",
	}
}

var _ = Describe("ranking probe results", func() {

	It("ranks only confirmed candidates, fastest first", func() {
		report := Rank("unit.test", []types.ProbeResultValue{
			probed("198.51.100.0", types.Success, 12*time.Millisecond),
			probed("198.51.100.1", types.Success, 5*time.Millisecond),
			probed("198.51.100.2", types.Timeout, 0),
			probed("198.51.100.3", types.Mismatch, 3*time.Millisecond),
		}, 3)
		Expect(report.Domain).To(Equal("unit.test"))
		Expect(report.Entries).To(HaveLen(2))
		Expect(report.Entries[0].Address).To(Equal(netip.MustParseAddr("198.51.100.1")))
		Expect(report.Entries[0].Latency).To(Equal(5 * time.Millisecond))
		Expect(report.Entries[1].Address).To(Equal(netip.MustParseAddr("198.51.100.0")))
	})

	It("breaks latency ties by address for deterministic reports", func() {
		results := []types.ProbeResultValue{
			probed("198.51.100.9", types.Success, 5*time.Millisecond),
			probed("198.51.100.1", types.Success, 5*time.Millisecond),
			probed("198.51.100.5", types.Success, 5*time.Millisecond),
		}
		report := Rank("unit.test", results, 10)
		Expect(report.Entries).To(HaveLen(3))
		Expect(report.Entries[0].Address).To(Equal(netip.MustParseAddr("198.51.100.1")))
		Expect(report.Entries[1].Address).To(Equal(netip.MustParseAddr("198.51.100.5")))
		Expect(report.Entries[2].Address).To(Equal(netip.MustParseAddr("198.51.100.9")))
		// ...and reversing the input must not change the ranking.
		reversed := []types.ProbeResultValue{results[2], results[1], results[0]}
		Expect(Rank("unit.test", reversed, 10)).To(Equal(report))
	})

	It("truncates to the requested top N", func() {
		report := Rank("unit.test", []types.ProbeResultValue{
			probed("198.51.100.1", types.Success, 5*time.Millisecond),
			probed("198.51.100.2", types.Success, 7*time.Millisecond),
			probed("198.51.100.3", types.Success, 9*time.Millisecond),
		}, 2)
		Expect(report.Entries).To(HaveLen(2))
		Expect(report.Entries[1].Address).To(Equal(netip.MustParseAddr("198.51.100.2")))
	})

	It("doesn't truncate for non-positive top N", func() {
		report := Rank("unit.test", []types.ProbeResultValue{
			probed("198.51.100.1", types.Success, 5*time.Millisecond),
			probed("198.51.100.2", types.Success, 7*time.Millisecond),
		}, 0)
		Expect(report.Entries).To(HaveLen(2))
	})

	It("reports empty when nothing got confirmed", func() {
		report := Rank("unit.test", []types.ProbeResultValue{
			probed("198.51.100.2", types.Timeout, 0),
			probed("198.51.100.3", types.ConnectionError, 0),
		}, 10)
		Expect(report.Entries).To(BeEmpty())
	})

})
