/*
Package ranges fetches the CIDR blocks that edge providers publish for their
networks. These published lists are the raw material for candidate
generation: any address inside them might currently serve a customer domain,
depending on virtual-host routing.

Feeds come in two flavors, plain text with one CIDR per line (Cloudflare) and
JSON documents (Fastly, CloudFront, Google Cloud), the latter picked apart
with [tidwall/gjson] path expressions. Either way a feed is untrusted input:
individual malformed entries are skipped with a debug note, and only a feed
that yields nothing at all is treated as unavailable.

A [Source] can carry a static fallback list for the inevitable day the live
feed is unreachable; using the fallback is reported as degraded operation so
callers can surface the staleness.

[tidwall/gjson]: https://github.com/tidwall/gjson
*/
package ranges
