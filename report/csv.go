// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes ranked reports as flat CSV rows of domain, address,
// latency and the matched fingerprint. Domains without any confirmed edge
// address still get a row, with a FAIL marker in the address column, so that
// downstream tooling sees every scanned domain.
func WriteCSV(w io.Writer, reports []RankedReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"domain", "address", "latency_ms", "note"}); err != nil {
		return err
	}
	for _, report := range reports {
		if len(report.Entries) == 0 {
			if err := cw.Write([]string{report.Domain, "FAIL", "", "no confirmed edge address"}); err != nil {
				return err
			}
			continue
		}
		for _, entry := range report.Entries {
			ms := strconv.FormatFloat(float64(entry.Latency.Microseconds())/1000.0, 'f', 1, 64)
			if err := cw.Write([]string{report.Domain, entry.Address.String(), ms, entry.Fingerprint}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
