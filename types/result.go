// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "time"

// DomainVerdict represents a probe verdict for a candidate address, together
// with the domain the candidate was probed for.
type DomainVerdict interface {
	Verdict
	Domain() string        // the probed domain
	DP() DomainProbeValue  // returns a copy
}

// Verdict gives access to the outcome of probing a single candidate address
// and allows deriving updated verdicts without mutating the original.
type Verdict interface {
	Addr() string                             // returns the candidate address
	Out() Outcome                             // returns the probe Outcome
	Lat() time.Duration                       // wall-clock latency to first response byte
	Sig() Signal                              // captured response identity signal
	Fp() string                               // matched-identity fingerprint, if confirmed
	Err() error                               // optional error details for excluded candidates
	PR() ProbeResultValue                     // returns (a copy of) the probe result
	WithOutcome(o Outcome, err error) Verdict // returns a new and updated verdict
	WithFingerprint(fp string) Verdict        // returns a new verdict carrying a fingerprint
}

// Signal captures the identity-relevant parts of a probe response. It is
// consumed by matchers that decide whether the serving tenant is the probed
// domain or just some default page behind the same address.
type Signal struct {
	StatusCode   int               `json:"status"`             // HTTP status code, 0 if no response
	Headers      map[string]string `json:"headers,omitempty"`  // selected response headers
	BodyFragment string            `json:"fragment,omitempty"` // leading bytes of the response body
}

// Header returns the value of the named response header, or "" if the header
// wasn't captured.
func (s Signal) Header(name string) string {
	return s.Headers[name]
}

// DomainProbeValue implements a concrete representation of a [DomainVerdict].
type DomainProbeValue struct {
	For              string `json:"domain"` // the domain the candidate was probed for
	ProbeResultValue        // a single probed candidate address
}

var _ DomainVerdict = (*DomainProbeValue)(nil)

// Domain returns the probed domain.
func (dp *DomainProbeValue) Domain() string {
	return dp.For
}

// DP returns (a copy of) the domain probe information.
func (dp *DomainProbeValue) DP() DomainProbeValue {
	return *dp
}

// WithOutcome returns a newly updated domain verdict.
func (dp *DomainProbeValue) WithOutcome(o Outcome, err error) Verdict {
	pr := dp.PR()
	pr.Outcome = o
	pr.err = err
	return &DomainProbeValue{
		For:              dp.For,
		ProbeResultValue: pr,
	}
}

// WithFingerprint returns a new domain verdict carrying the matched-identity
// fingerprint.
func (dp *DomainProbeValue) WithFingerprint(fp string) Verdict {
	pr := dp.PR()
	pr.Fingerprint = fp
	return &DomainProbeValue{
		For:              dp.For,
		ProbeResultValue: pr,
	}
}

// ProbeResultValue is the outcome of probing one candidate address: the
// address itself, the measured latency, the outcome classification, and an
// optional matched-identity fingerprint.
type ProbeResultValue struct {
	Address     string        `json:"address"`               // a single candidate IP (v4/v6) address
	Outcome     Outcome       `json:"outcome"`               // probe/confirmation state
	Latency     time.Duration `json:"latency"`               // connection start to first response byte
	Fingerprint string        `json:"fingerprint,omitempty"` // identity token from confirmation
	Signal      Signal        `json:"-"`                     // response signal for the confirmer
	err         error         // optional error details for excluded candidates
}

var _ Verdict = (*ProbeResultValue)(nil)

// Addr returns the candidate address.
func (pr *ProbeResultValue) Addr() string { return pr.Address }

// Out returns the probe outcome.
func (pr *ProbeResultValue) Out() Outcome { return pr.Outcome }

// Lat returns the measured probe latency.
func (pr *ProbeResultValue) Lat() time.Duration { return pr.Latency }

// Sig returns the captured response signal.
func (pr *ProbeResultValue) Sig() Signal { return pr.Signal }

// Fp returns the matched-identity fingerprint, or "" while unconfirmed.
func (pr *ProbeResultValue) Fp() string { return pr.Fingerprint }

// Err returns an optional error that occurred while probing a candidate.
func (pr *ProbeResultValue) Err() error { return pr.err }

// PR returns (a copy of) the probe result information.
func (pr *ProbeResultValue) PR() ProbeResultValue {
	return *pr
}

// WithOutcome returns a newly updated probe verdict.
func (pr *ProbeResultValue) WithOutcome(o Outcome, err error) Verdict {
	result := pr.PR()
	result.Outcome = o
	result.err = err
	return &result
}

// WithFingerprint returns a new probe verdict carrying the matched-identity
// fingerprint.
func (pr *ProbeResultValue) WithFingerprint(fp string) Verdict {
	result := pr.PR()
	result.Fingerprint = fp
	return &result
}
