// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// domainRe loosely validates DNS host names; good enough for deciding which
// CSV column holds the domains.
var domainRe = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?i:[a-z]{2,})$`)

// readDomainsCSV reads the domains to scan from a CSV file. The domain
// column is guessed rather than configured: the first column whose non-empty
// values all validate as domains wins, with an optional header row tolerated
// and skipped. Duplicate domains are dropped, keeping first-seen order.
func readDomainsCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot read domains from %s: %w", path, err)
	}
	column := guessDomainsColumn(records)
	if column < 0 {
		return nil, fmt.Errorf("no column with valid domains in %s", path)
	}
	seen := map[string]struct{}{}
	var domains []string
	for _, record := range records {
		if column >= len(record) {
			continue
		}
		domain := strings.TrimSpace(record[column])
		if !domainRe.MatchString(domain) {
			continue // header row or blank line
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("no domains in %s", path)
	}
	return domains, nil
}

// guessDomainsColumn returns the index of the first column whose values all
// look like domains, ignoring a single leading non-domain value per column
// to tolerate header rows. It returns -1 if no column qualifies.
func guessDomainsColumn(records [][]string) int {
	if len(records) == 0 {
		return -1
	}
	columns := len(records[0])
	for column := 0; column < columns; column++ {
		matches := 0
		misses := 0
		for _, record := range records {
			if column >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[column])
			if value == "" {
				continue
			}
			if domainRe.MatchString(value) {
				matches++
				continue
			}
			misses++
		}
		if matches > 0 && misses <= 1 {
			return column
		}
	}
	return -1
}
