/*
Package types defines edgedig's information model. Which is rather simple and
mainly revolves around [Verdict] and [DomainVerdict], as well as the probe
[Outcome] of candidate addresses. [DomainVerdict] is a [Verdict] with the
additional domain the candidate address was probed for.

# Extending Verdict

Depending on how edgedig gets integrated into other applications, there might
be the need to add application-specific information to probe verdicts.
Basically, a Prober accepts anything downstream that satisfies the [Verdict]
interface.

In case an implementation chooses to embed [ProbeResultValue] into its own
type, it is essential to (re)implement the [ProbeResultValue.WithOutcome] and
[ProbeResultValue.WithFingerprint] methods. Failing to do so will cause the
embedded methods to be propagated to the new type, yet they won't return the
proper new type, but instead only a stock ProbeResultValue, loosing the
additional information in the process.

# Design Rationale

The seemingly peculiar separation into a [Verdict] interface as well as a
[ProbeResultValue] struct type is necessary in order to allow polymorphism: a
Prober hands out verdicts for plain candidate addresses, while the scanning
pipeline needs these verdicts in the context of the domain they were probed
for. From the perspective of a Prober or Confirmer, whatever the concrete
structural type is, this is fine as long as it looks and smells like a probe
verdict by supporting the expected interface.

Please keep in mind that edgedig is inherently concurrent wherever possible:
probing lots of candidate addresses is carried out concurrently. Since verdict
interface values are passed around through channels, we need to bake in value
semantics and immutability through a careful [Verdict] interface design
offering only getters and copy-returning updates. This not only avoids a
locking mess, but also tons of subtle bugs.
*/
package types
