// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ranges

import "net/netip"

// Provider describes where and how an edge provider publishes the CIDR
// blocks of its network. Plain-text feeds list one CIDR per line; JSON feeds
// additionally specify the gjson paths at which the prefix arrays live.
type Provider struct {
	Name  string   // short provider identifier, e.g. "cloudflare"
	URLs  []string // feed locations; all of them get fetched and merged
	Paths []string // gjson paths for JSON feeds; empty for plain-text feeds
}

// Providers registers the built-in edge providers and their published range
// feeds.
var Providers = map[string]Provider{
	"cloudflare": {
		Name: "cloudflare",
		URLs: []string{
			"https://www.cloudflare.com/ips-v4",
			"https://www.cloudflare.com/ips-v6",
		},
	},
	"fastly": {
		Name:  "fastly",
		URLs:  []string{"https://api.fastly.com/public-ip-list"},
		Paths: []string{"addresses", "ipv6_addresses"},
	},
	"cloudfront": {
		Name:  "cloudfront",
		URLs:  []string{"https://ip-ranges.amazonaws.com/ip-ranges.json"},
		Paths: []string{`prefixes.#(service=="CLOUDFRONT")#.ip_prefix`},
	},
	"gcloud": {
		Name:  "gcloud",
		URLs:  []string{"https://www.gstatic.com/ipranges/cloud.json"},
		Paths: []string{"prefixes.#.ipv4Prefix", "prefixes.#.ipv6Prefix"},
	},
}

// cloudflareFallback is the static fallback list used when the Cloudflare
// feed cannot be fetched and no explicit fallback has been configured. It is
// the provider's published list as of early 2023 and deliberately only a
// safety net, not a substitute for the live feed.
var cloudflareFallback = []netip.Prefix{
	netip.MustParsePrefix("173.245.48.0/20"),
	netip.MustParsePrefix("103.21.244.0/22"),
	netip.MustParsePrefix("103.22.200.0/22"),
	netip.MustParsePrefix("103.31.4.0/22"),
	netip.MustParsePrefix("141.101.64.0/18"),
	netip.MustParsePrefix("108.162.192.0/18"),
	netip.MustParsePrefix("190.93.240.0/20"),
	netip.MustParsePrefix("188.114.96.0/20"),
	netip.MustParsePrefix("197.234.240.0/22"),
	netip.MustParsePrefix("198.41.128.0/17"),
	netip.MustParsePrefix("162.158.0.0/15"),
	netip.MustParsePrefix("104.16.0.0/13"),
	netip.MustParsePrefix("104.24.0.0/14"),
	netip.MustParsePrefix("172.64.0.0/13"),
	netip.MustParsePrefix("131.0.72.0/22"),
}
