/*
Package candidates turns provider CIDR ranges into the bounded set of
concrete addresses worth probing.

The full address space of an edge provider is far too large to probe
exhaustively, and enumerating a range front-to-back would bias every scan
toward the same leading sub-blocks. A [Generator] therefore enumerates only
while the total space fits the configured limit and otherwise samples
seeded-randomly across all ranges, stratified by block size. The seed is
fixed per generator, making candidate selection reproducible: the same
ranges, limit, and seed always produce the same candidates in the same
order.

Addresses appearing in overlapping ranges are produced only once.

CIDR expansion of small blocks leverages [projectdiscovery/mapcidr].

[projectdiscovery/mapcidr]: https://github.com/projectdiscovery/mapcidr
*/
package candidates
