// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package confirm

import (
	"strings"

	"github.com/siemens/edgedig/types"
)

// Matcher decides whether a captured response signal is consistent with the
// probed domain's tenant. On a positive match it returns a fingerprint token
// identifying the serving edge (for reporting), on a negative match it
// returns false and the probe gets excluded as a mismatch.
//
// Matching response metadata is inherently fuzzy, so the strategy is
// pluggable: swap in a provider- or application-specific matcher via
// [WithMatcher] without touching the prober or the ranking.
type Matcher func(domain string, sig types.Signal) (fingerprint string, ok bool)

// identityHeaders are response headers that identify a real edge tenant
// response, in fingerprint order. A generic default server typically sets
// none of them beyond a bare Server.
var identityHeaders = []string{
	"Cf-Ray",      // Cloudflare request id
	"X-Amz-Cf-Id", // CloudFront request id
	"X-Served-By", // Fastly cache node
	"X-Cache",
	"Via",
	"Server",
}

// defaultPageMarkers give away placeholder pages served to unknown virtual
// hosts; their presence vetoes a match regardless of headers.
var defaultPageMarkers = []string{
	"Welcome to nginx",
	"It works!",
	"default web page",
	"Test Page for",
	"Direct IP access not allowed",
}

// DefaultMatcher is the stock identity heuristic: a response matches the
// probed domain when it carries a non-error status, at least one
// edge-identity header, and no default-page marker in the captured body
// fragment. The fingerprint is assembled from the identity headers present.
//
// TLS certificates are deliberately not inspected: some edges terminate TLS
// before virtual-host routing, so the certificate proves nothing about the
// serving tenant.
func DefaultMatcher(domain string, sig types.Signal) (string, bool) {
	if sig.StatusCode < 200 || sig.StatusCode >= 400 {
		return "", false
	}
	for _, marker := range defaultPageMarkers {
		if strings.Contains(sig.BodyFragment, marker) {
			return "", false
		}
	}
	fields := make([]string, 0, 2)
	for _, header := range identityHeaders {
		if value := sig.Header(header); value != "" {
			fields = append(fields, header+"="+value)
		}
	}
	if len(fields) == 0 {
		return "", false
	}
	return strings.Join(fields, ";"), true
}
