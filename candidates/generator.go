// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package candidates

import (
	"context"
	"errors"
	"math"
	"math/big"
	mathrand "math/rand"
	"net/netip"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mapcidr"
)

// ErrNoCandidates signals that the configured ranges yield no candidate
// addresses at all, so there is nothing to probe. This is fatal for the
// affected domain's scan.
var ErrNoCandidates = errors.New("no candidate addresses to probe")

// DefaultLimit is the default upper bound on the number of candidates
// generated per scan.
const DefaultLimit = 256

// sampleTries bounds how often the sampler retries picking an address from a
// block before giving up on that pick; duplicates otherwise could stall
// sampling on nearly-exhausted blocks.
const sampleTries = 8

// Generator expands provider CIDR ranges into a bounded, deduplicated list
// of candidate addresses to probe. Small address spaces are enumerated
// exhaustively; once the total space exceeds the configured limit the
// generator switches to seeded random sampling, stratified across the ranges
// in proportion to their size, so that a huge block doesn't drown out the
// small ones and a fixed seed always reproduces the same sample.
type Generator struct {
	ranges []netip.Prefix
	limit  int
	seed   int64
}

// GeneratorOption can be passed to New when creating new Generator objects.
type GeneratorOption func(*Generator)

// New returns a new [Generator] over the specified ranges. The generator
// defaults to a candidate limit of [DefaultLimit] and a fixed sampling seed
// of 1.
//
// The generator can be configured during creation using several options:
//   - [WithLimit]
//   - [WithSeed]
func New(ranges []netip.Prefix, options ...GeneratorOption) *Generator {
	g := &Generator{
		ranges: ranges,
		limit:  DefaultLimit,
		seed:   1,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// WithLimit bounds the number of candidates generated per scan.
func WithLimit(limit int) GeneratorOption {
	return func(g *Generator) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// WithSeed sets the seed of the sampling PRNG. A fixed seed yields a fixed,
// reproducible sample.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		g.seed = seed
	}
}

// Generate produces the candidate addresses for this generator's ranges.
// Generation is restartable: calling Generate again returns the same
// candidates in the same order. It fails with [ErrNoCandidates] when the
// ranges yield nothing to probe.
func (g *Generator) Generate() ([]netip.Addr, error) {
	if len(g.ranges) == 0 {
		return nil, ErrNoCandidates
	}
	var addrs []netip.Addr
	if g.spaceExceeds(g.limit) {
		addrs = g.sample()
	} else {
		addrs = g.enumerate()
	}
	if len(addrs) == 0 {
		return nil, ErrNoCandidates
	}
	return addrs, nil
}

// Stream produces the candidate addresses as a channel-based sequence, for
// feeding a Prober. The returned channel is closed after the final candidate
// or as soon as the context is done.
func (g *Generator) Stream(ctx context.Context) (<-chan netip.Addr, error) {
	addrs, err := g.Generate()
	if err != nil {
		return nil, err
	}
	ch := make(chan netip.Addr)
	go func() {
		defer close(ch)
		for _, addr := range addrs {
			select {
			case ch <- addr:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// spaceExceeds reports whether the total address space of all ranges exceeds
// the specified count, without materializing the space.
func (g *Generator) spaceExceeds(count int) bool {
	total := uint64(0)
	for _, prefix := range g.ranges {
		span := prefix.Addr().BitLen() - prefix.Bits()
		if span >= 62 {
			return true
		}
		total += uint64(1) << span
		if total > uint64(count) {
			return true
		}
	}
	return false
}

// enumerate expands all ranges exhaustively, deduplicating addresses across
// overlapping ranges while keeping the feed order.
func (g *Generator) enumerate() []netip.Addr {
	seen := map[netip.Addr]struct{}{}
	var addrs []netip.Addr
	for _, prefix := range g.ranges {
		ips, err := mapcidr.IPAddresses(prefix.String())
		if err != nil {
			gologger.Debug().Msgf("skipping unexpandable range %s: %s", prefix, err)
			continue
		}
		for _, ip := range ips {
			addr, err := netip.ParseAddr(ip)
			if err != nil {
				continue
			}
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			addrs = append(addrs, addr)
			if len(addrs) >= g.limit {
				return addrs
			}
		}
	}
	return addrs
}

// sample draws up to the limit of addresses from the ranges, stratified
// proportionally to each range's size. The PRNG is seeded so that the sample
// is reproducible; duplicates across overlapping ranges are skipped with a
// bounded number of retries per pick.
func (g *Generator) sample() []netip.Addr {
	rng := mathrand.New(mathrand.NewSource(g.seed))
	weights := make([]float64, len(g.ranges))
	weightSum := 0.0
	for idx, prefix := range g.ranges {
		weights[idx] = rangeWeight(prefix)
		weightSum += weights[idx]
	}
	seen := map[netip.Addr]struct{}{}
	addrs := make([]netip.Addr, 0, g.limit)
	for idx, prefix := range g.ranges {
		if len(addrs) >= g.limit {
			break
		}
		portion := int(math.Round(float64(g.limit) * weights[idx] / weightSum))
		if portion == 0 {
			portion = 1
		}
		// Ranges still waiting their turn each keep one slot reserved, so
		// that a big range up front cannot starve the small ones.
		reserved := len(g.ranges) - idx - 1
		for picked := 0; picked < portion && len(addrs) < g.limit-reserved; picked++ {
			addr, ok := pickAddr(prefix, rng, seen)
			if !ok {
				break
			}
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// pickAddr draws a single not-yet-seen address from the given block.
func pickAddr(prefix netip.Prefix, rng *mathrand.Rand, seen map[netip.Addr]struct{}) (netip.Addr, bool) {
	for try := 0; try < sampleTries; try++ {
		addr := randomAddr(prefix, rng)
		if !addr.IsValid() {
			return netip.Addr{}, false
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		return addr, true
	}
	return netip.Addr{}, false
}

// rangeWeight weighs a block by its size, capped so that giant IPv6 blocks
// don't reduce every other block's portion to the minimum.
func rangeWeight(prefix netip.Prefix) float64 {
	span := prefix.Addr().BitLen() - prefix.Bits()
	if span > 16 {
		span = 16
	}
	return math.Pow(2, float64(span))
}

// randomAddr returns a uniformly random address inside the given block.
func randomAddr(prefix netip.Prefix, rng *mathrand.Rand) netip.Addr {
	span := prefix.Addr().BitLen() - prefix.Bits()
	if span <= 0 {
		return prefix.Addr()
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(span))
	offset := new(big.Int).Rand(rng, bound)
	var base []byte
	if prefix.Addr().Is4() {
		b := prefix.Masked().Addr().As4()
		base = b[:]
	} else {
		b := prefix.Masked().Addr().As16()
		base = b[:]
	}
	sum := new(big.Int).Add(new(big.Int).SetBytes(base), offset)
	addr, ok := netip.AddrFromSlice(sum.FillBytes(make([]byte, len(base))))
	if !ok {
		return netip.Addr{}
	}
	return addr
}
