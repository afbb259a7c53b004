/*
Package confirm implements the tenant-identity confirmation stage of the
probing pipeline.

A successful probe only proves that something answered at the candidate
address; edge addresses serve many tenants, and an address in a provider's
published range may just as well answer with a default page or a different
customer's content. A [Confirmer] therefore inspects the identity signal
captured during probing and downgrades unconvincing successes to mismatch.
Mismatches never reach the ranking, but stay visible in the diagnostic
counts.

The concrete matching heuristic is a pluggable [Matcher] predicate;
[DefaultMatcher] documents the stock strategy.
*/
package confirm
