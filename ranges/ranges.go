// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ranges

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/tidwall/gjson"
)

// ErrRangeUnavailable signals that a provider's published range list could
// not be obtained and no fallback list was configured. This is fatal for a
// scan run: without ranges there is nothing to probe.
var ErrRangeUnavailable = errors.New("provider range list unavailable")

// maxFeedSize caps how much of an untrusted range feed gets read.
const maxFeedSize = 4 << 20

// Source supplies the CIDR blocks belonging to an edge provider, fetched
// from the provider's published feed(s). Feeds are treated as untrusted
// external input: malformed entries are skipped, only a completely empty
// result is an error. A Source can optionally fall back to a static range
// list when the live feed cannot be obtained.
type Source struct {
	provider Provider
	client   *http.Client
	fallback []netip.Prefix
}

// SourceOption can be passed to New when creating new Source objects.
type SourceOption func(*Source)

// New returns a new range [Source] for the named provider. Unknown provider
// names are an error. The new source defaults to a 15s feed fetch timeout
// and, for the "cloudflare" provider, to a built-in static fallback list.
//
// The source can be configured during creation using several options:
//   - [WithHTTPClient]
//   - [WithFallback]
//   - [WithFeed]
func New(provider string, options ...SourceOption) (*Source, error) {
	p, ok := Providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown edge provider %q", provider)
	}
	src := &Source{
		provider: p,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	if provider == "cloudflare" {
		src.fallback = cloudflareFallback
	}
	for _, opt := range options {
		opt(src)
	}
	return src, nil
}

// WithHTTPClient sets the HTTP client used for fetching range feeds.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *Source) {
		s.client = client
	}
}

// WithFallback sets a static range list to fall back to when the provider
// feed cannot be obtained. Passing a nil or empty list disables any built-in
// fallback.
func WithFallback(prefixes []netip.Prefix) SourceOption {
	return func(s *Source) {
		s.fallback = prefixes
	}
}

// WithFeed replaces the provider's published feed locations; mostly useful
// for feed mirrors and testing.
func WithFeed(urls ...string) SourceOption {
	return func(s *Source) {
		s.provider.URLs = urls
	}
}

// Ranges fetches and parses the provider's published range feed(s),
// returning the CIDR blocks found. The degraded return value is true when
// the live feed could not be obtained and the static fallback list was used
// instead. If neither feed nor fallback yield any ranges, Ranges fails with
// [ErrRangeUnavailable].
func (s *Source) Ranges(ctx context.Context) (prefixes []netip.Prefix, degraded bool, err error) {
	var feederr error
	for _, url := range s.provider.URLs {
		feed, err := s.fetch(ctx, url)
		if err != nil {
			feederr = err
			gologger.Warning().Msgf("range feed %s: %s", url, err)
			continue
		}
		prefixes = append(prefixes, s.parse(feed)...)
	}
	if len(prefixes) > 0 {
		return prefixes, false, nil
	}
	if len(s.fallback) > 0 {
		gologger.Warning().Msgf("provider %s feed unavailable, using static fallback list",
			s.provider.Name)
		return append([]netip.Prefix(nil), s.fallback...), true, nil
	}
	if feederr != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrRangeUnavailable, feederr)
	}
	return nil, false, fmt.Errorf("%w: feed for %s came up empty",
		ErrRangeUnavailable, s.provider.Name)
}

// fetch retrieves a single feed document, capped at maxFeedSize.
func (s *Source) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected feed status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parse extracts CIDR prefixes from a feed document, either line-wise for
// plain-text feeds or via the provider's gjson paths for JSON feeds.
// Malformed entries are skipped; bare addresses are accepted as single-host
// prefixes.
func (s *Source) parse(feed string) []netip.Prefix {
	var entries []string
	if len(s.provider.Paths) == 0 {
		scanner := bufio.NewScanner(strings.NewReader(feed))
		for scanner.Scan() {
			entries = append(entries, strings.TrimSpace(scanner.Text()))
		}
	} else {
		for _, path := range s.provider.Paths {
			for _, hit := range gjson.Get(feed, path).Array() {
				entries = append(entries, strings.TrimSpace(hit.String()))
			}
		}
	}
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			if addr, err := netip.ParseAddr(entry); err == nil {
				prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
				continue
			}
			gologger.Debug().Msgf("skipping malformed range entry %q", entry)
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes
}
