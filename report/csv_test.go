// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"net/netip"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CSV report output", func() {

	It("writes one row per confirmed edge address", func() {
		var sb strings.Builder
		Expect(WriteCSV(&sb, []RankedReport{
			{
				Domain: "unit.test",
				Entries: []RankedEntry{
					{
						Address:     netip.MustParseAddr("198.51.100.1"),
						Latency:     5200 * time.Microsecond,
						Fingerprint: "Server=unit-test-edge",
					},
					{
						Address: netip.MustParseAddr("198.51.100.2"),
						Latency: 12 * time.Millisecond,
					},
				},
			},
		})).To(Succeed())
		Expect(sb.String()).To(Equal(
			"domain,address,latency_ms,note\n" +
				"unit.test,198.51.100.1,5.2,Server=unit-test-edge\n" +
				"unit.test,198.51.100.2,12.0,\n"))
	})

	It("marks domains without any confirmed edge address", func() {
		var sb strings.Builder
		Expect(WriteCSV(&sb, []RankedReport{
			{Domain: "unit.test"},
		})).To(Succeed())
		Expect(sb.String()).To(ContainSubstring("unit.test,FAIL,,no confirmed edge address\n"))
	})

})
