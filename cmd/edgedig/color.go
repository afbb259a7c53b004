// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	probingAddressStyle   = termenv.Style{}.Foreground(termenv.ANSIYellow)
	confirmedAddressStyle = termenv.Style{}.Foreground(termenv.ANSIGreen)
)

var domainNameStyle = termenv.Style{}.Bold()
