// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"time"

	"github.com/siemens/edgedig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func news(domain string, addr string, outcome types.Outcome) types.DomainVerdict {
	return &types.DomainProbeValue{
		For: domain,
		ProbeResultValue: types.ProbeResultValue{
			Address: addr,
			Outcome: outcome,
			Latency: 5 * time.Millisecond,
		},
	}
}

var _ = Describe("probe board", func() {

	It("registers candidates as they start probing", func() {
		board := NewBoard()
		board.Update(news("unit.test", "192.0.2.1", types.Probing))
		board.Update(news("unit.test", "192.0.2.2", types.Probing))
		results := board.Results("unit.test")
		Expect(results).To(HaveLen(2))
		Expect(results[0].Outcome).To(Equal(types.Probing))
	})

	It("registers a domain without candidates yet", func() {
		board := NewBoard()
		board.Update(news("unit.test", "", types.Pending))
		Expect(board.Results("unit.test")).To(BeEmpty())
		Expect(board.Get()).To(HaveLen(1))
	})

	It("moves pending candidates to their terminal outcome, but never back", func() {
		board := NewBoard()
		board.Update(news("unit.test", "192.0.2.1", types.Probing))
		board.Update(news("unit.test", "192.0.2.1", types.Success))
		results := board.Results("unit.test")
		Expect(results).To(HaveLen(1))
		Expect(results[0].Outcome).To(Equal(types.Success))

		board.Update(news("unit.test", "192.0.2.1", types.Timeout))
		Expect(board.Results("unit.test")[0].Outcome).To(Equal(types.Success),
			"terminal outcomes must not transition")
	})

	It("keeps domains apart", func() {
		board := NewBoard()
		board.Update(news("unit.test", "192.0.2.1", types.Success))
		board.Update(news("other.test", "192.0.2.1", types.Timeout))
		Expect(board.Results("unit.test")).To(HaveLen(1))
		Expect(board.Results("unit.test")[0].Outcome).To(Equal(types.Success))
		Expect(board.Results("other.test")[0].Outcome).To(Equal(types.Timeout))
	})

	It("ignores nil and domain-less verdicts", func() {
		board := NewBoard()
		board.Update(nil)
		board.Update(news("", "192.0.2.1", types.Success))
		Expect(board.Get()).To(BeEmpty())
	})

	It("tracks a verdict stream until it closes", NodeTimeout(10*time.Second), func(ctx context.Context) {
		ch := make(chan types.DomainVerdict, 2)
		ch <- news("unit.test", "192.0.2.1", types.Probing)
		ch <- news("unit.test", "192.0.2.1", types.Success)
		close(ch)

		board := NewBoard()
		Expect(board.Track(ctx, ch)).To(Succeed())
		results := board.Results("unit.test")
		Expect(results).To(HaveLen(1))
		Expect(results[0].Outcome).To(Equal(types.Success))
	})

	It("aborts tracking when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		board := NewBoard()
		Expect(board.Track(ctx, make(chan types.DomainVerdict))).To(
			MatchError(context.Canceled))
	})

})
