// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Outcome indicates the state of probing a candidate edge address, such as
// pending, success, timeout, et cetera.
type Outcome int

// The probe outcomes of a candidate address.
const (
	Pending         Outcome = iota // candidate generated, probe not yet started.
	Probing                        // probe currently in flight.
	Success                        // response received in time over an intact transport.
	Timeout                        // no response within the per-probe timeout.
	ConnectionError                // unreachable, refused, or reset at the transport layer.
	Mismatch                       // response received, but served by a different tenant.
)

// String returns the clear-text representation of an Outcome value.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Probing:
		return "probing"
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case ConnectionError:
		return "connection-error"
	case Mismatch:
		return "mismatch"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

// IsPending returns true as long as a candidate hasn't reached one of the
// terminal outcomes yet.
func (o Outcome) IsPending() bool {
	switch o {
	case Pending, Probing:
		return true
	default:
		return false
	}
}

// Excluded returns true for the terminal outcomes that remove a candidate
// from the ranking pool.
func (o Outcome) Excluded() bool {
	switch o {
	case Timeout, ConnectionError, Mismatch:
		return true
	default:
		return false
	}
}
